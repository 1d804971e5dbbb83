package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/mytoken/internal/contract"
	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/keys"
)

// System action names.
var (
	ActNewAccount = ir.MustName("newaccount")
	ActSetCode    = ir.MustName("setcode")
	ActSetABI     = ir.MustName("setabi")
	ActUpdateAuth = ir.MustName("updateauth")
)

// maxAccountNameLength bounds names created by newaccount; the 13th
// character is reserved.
const maxAccountNameLength = 12

// SystemABI describes the eosio account's actions.
var SystemABI = &ir.ABI{
	Version: "eosio::abi/1.1",
	Structs: []ir.StructDef{
		{Name: "newaccount", Fields: []ir.FieldDef{
			{Name: "creator", Type: "name"},
			{Name: "name", Type: "name"},
			{Name: "key", Type: "public_key"},
		}},
		{Name: "setcode", Fields: []ir.FieldDef{
			{Name: "account", Type: "name"},
			{Name: "code_id", Type: "string"},
			{Name: "code_hash", Type: "checksum256"},
		}},
		{Name: "setabi", Fields: []ir.FieldDef{
			{Name: "account", Type: "name"},
			{Name: "abi", Type: "string"},
		}},
		{Name: "updateauth", Fields: []ir.FieldDef{
			{Name: "account", Type: "name"},
			{Name: "permission", Type: "name"},
			{Name: "eosio_code", Type: "bool"},
		}},
	},
	Actions: []ir.ActionDef{
		{Name: "newaccount", Type: "newaccount"},
		{Name: "setcode", Type: "setcode"},
		{Name: "setabi", Type: "setabi"},
		{Name: "updateauth", Type: "updateauth"},
	},
}

type newAccountArgs struct {
	Creator ir.Name `abi:"creator"`
	Name    ir.Name `abi:"name"`
	Key     string  `abi:"key"`
}

type setCodeArgs struct {
	Account  ir.Name `abi:"account"`
	CodeID   string  `abi:"code_id"`
	CodeHash string  `abi:"code_hash"`
}

type setABIArgs struct {
	Account ir.Name `abi:"account"`
	ABI     string  `abi:"abi"`
}

type updateAuthArgs struct {
	Account    ir.Name `abi:"account"`
	Permission ir.Name `abi:"permission"`
	EosioCode  bool    `abi:"eosio_code"`
}

// applySystem runs an eosio action. These actions need store access no
// contract has, so they are dispatched here rather than through the
// registry.
func (e *execution) applySystem(ctx context.Context, h *host) error {
	data := h.pa.data
	switch h.pa.action.Name {
	case ActNewAccount:
		var args newAccountArgs
		if err := contract.Decode(data, &args); err != nil {
			return err
		}
		return e.newAccount(ctx, h, args)
	case ActSetCode:
		var args setCodeArgs
		if err := contract.Decode(data, &args); err != nil {
			return err
		}
		return e.setCode(ctx, h, args)
	case ActSetABI:
		var args setABIArgs
		if err := contract.Decode(data, &args); err != nil {
			return err
		}
		return e.setABI(ctx, h, args)
	case ActUpdateAuth:
		var args updateAuthArgs
		if err := contract.Decode(data, &args); err != nil {
			return err
		}
		return e.updateAuth(ctx, h, args)
	default:
		return fmt.Errorf("%w: eosio::%s", contract.ErrUnknownAction, h.pa.action.Name)
	}
}

func (e *execution) newAccount(ctx context.Context, h *host, args newAccountArgs) error {
	if err := h.RequireAuth(args.Creator); err != nil {
		return err
	}

	name := args.Name.String()
	if err := contract.Check(!args.Name.IsEmpty(), "account name cannot be empty"); err != nil {
		return err
	}
	if err := contract.Check(len(name) <= maxAccountNameLength, "account names can only be 12 chars long"); err != nil {
		return err
	}
	if err := contract.Check(args.Creator == ir.SystemAccount || !strings.HasPrefix(name, "eosio."),
		"only eosio may create eosio. accounts"); err != nil {
		return err
	}

	exists, err := e.tx.AccountExists(ctx, args.Name)
	if err != nil {
		return err
	}
	if err := contract.Check(!exists, fmt.Sprintf("Cannot create account named %s, as that name is already taken", name)); err != nil {
		return err
	}

	key, err := keys.ParsePublicKey(args.Key)
	if err != nil {
		return &contract.AssertError{Message: "invalid public key: " + err.Error()}
	}

	return e.tx.CreateAccount(ctx, ir.Account{
		Name:         args.Name,
		PublicKey:    key.String(),
		Creator:      args.Creator,
		CreatedBlock: e.block,
	})
}

func (e *execution) setCode(ctx context.Context, h *host, args setCodeArgs) error {
	if err := h.RequireAuth(args.Account); err != nil {
		return err
	}
	if args.CodeID != "" {
		if _, ok := e.c.registry.Lookup(args.CodeID); !ok {
			return newError(ErrCodeUnknownCode, "no contract registered for code id %q", args.CodeID)
		}
	}
	if err := e.tx.SetCode(ctx, args.Account, args.CodeID, args.CodeHash); err != nil {
		return err
	}
	e.logger.Debug("code set", "account", args.Account.String(), "code_id", args.CodeID)
	return nil
}

func (e *execution) setABI(ctx context.Context, h *host, args setABIArgs) error {
	if err := h.RequireAuth(args.Account); err != nil {
		return err
	}

	abi, err := e.c.abis.Compile(args.Account.String()+".abi", []byte(args.ABI))
	if err != nil {
		return &RuntimeError{Code: ErrCodeInvalidData, Message: "invalid ABI: " + err.Error(), Err: err}
	}
	normalized, err := json.Marshal(abi)
	if err != nil {
		return fmt.Errorf("marshal ABI: %w", err)
	}
	if err := e.tx.SetABI(ctx, args.Account, normalized); err != nil {
		return err
	}
	delete(e.abis, args.Account)
	return nil
}

func (e *execution) updateAuth(ctx context.Context, h *host, args updateAuthArgs) error {
	if err := h.RequireAuth(args.Account); err != nil {
		return err
	}
	if err := contract.Check(args.Permission == ir.ActivePerm, "only the active permission can be linked to eosio.code"); err != nil {
		return err
	}
	return e.tx.SetInlineCode(ctx, args.Account, args.EosioCode)
}
