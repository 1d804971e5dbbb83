package ir

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// PermissionLevel is an actor@permission pair authorizing an action.
type PermissionLevel struct {
	Actor      Name `json:"actor"`
	Permission Name `json:"permission"`
}

// Active returns actor@active.
func Active(actor Name) PermissionLevel {
	return PermissionLevel{Actor: actor, Permission: ActivePerm}
}

// ParsePermissionLevel parses "alice@active". A bare actor means @active.
func ParsePermissionLevel(s string) (PermissionLevel, error) {
	actor, perm, found := strings.Cut(s, "@")
	a, err := ParseName(actor)
	if err != nil {
		return PermissionLevel{}, fmt.Errorf("permission level %q: %w", s, err)
	}
	if !found {
		return Active(a), nil
	}
	p, err := ParseName(perm)
	if err != nil {
		return PermissionLevel{}, fmt.Errorf("permission level %q: %w", s, err)
	}
	return PermissionLevel{Actor: a, Permission: p}, nil
}

func (p PermissionLevel) String() string {
	return p.Actor.String() + "@" + p.Permission.String()
}

// HexBytes is a byte slice that marshals as lowercase hex.
type HexBytes []byte

// MarshalText encodes the bytes as hex.
func (h HexBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h)), nil
}

// UnmarshalText decodes hex.
func (h *HexBytes) UnmarshalText(b []byte) error {
	out, err := hex.DecodeString(string(b))
	if err != nil {
		return err
	}
	*h = out
	return nil
}

// Action is a single call to a contract with ABI-packed data.
type Action struct {
	Account       Name              `json:"account"`
	Name          Name              `json:"name"`
	Authorization []PermissionLevel `json:"authorization"`
	Data          HexBytes          `json:"data"`
}

// Transaction is an ordered list of actions applied atomically.
// Nonce distinguishes otherwise identical transactions.
type Transaction struct {
	Nonce   int64    `json:"nonce"`
	Actions []Action `json:"actions"`
}

// SignedTransaction carries hex-encoded DER signatures over the
// transaction's signing digest.
type SignedTransaction struct {
	Transaction
	Signatures []string `json:"signatures"`
}

// ActionTrace records one executed action: a top-level action, an inline
// action, or a notification delivered to a recipient (Receiver != Account).
type ActionTrace struct {
	Ordinal        int               `json:"action_ordinal"`
	CreatorOrdinal int               `json:"creator_action_ordinal"`
	Depth          int               `json:"depth"`
	Receiver       Name              `json:"receiver"`
	Account        Name              `json:"account"`
	Name           Name              `json:"name"`
	Authorization  []PermissionLevel `json:"authorization"`
	Data           IRObject          `json:"data"`
	HexData        HexBytes          `json:"hex_data"`
}

// IsNotification reports whether the trace is a require_recipient delivery.
func (t ActionTrace) IsNotification() bool { return t.Receiver != t.Account }

// Transaction status values.
const (
	StatusExecuted = "executed"
)

// TransactionReceipt is the result of an executed transaction.
type TransactionReceipt struct {
	ID           string        `json:"id"`
	BlockNum     int64         `json:"block_num"`
	Status       string        `json:"status"`
	ActionTraces []ActionTrace `json:"action_traces"`
}

// CurrencyStats is the get_currency_stats view of a token's stat row.
type CurrencyStats struct {
	Supply    string `json:"supply"`
	MaxSupply string `json:"max_supply"`
	Issuer    string `json:"issuer"`
}

// TableRow is a stored contract table row.
type TableRow struct {
	Code       Name            `json:"code"`
	Scope      Name            `json:"scope"`
	Table      Name            `json:"table"`
	PrimaryKey uint64          `json:"primary_key"`
	Payer      Name            `json:"payer"`
	Value      json.RawMessage `json:"value"`
}

// Account is an on-chain account record.
type Account struct {
	Name         Name   `json:"account_name"`
	PublicKey    string `json:"public_key"`
	Creator      Name   `json:"creator"`
	CodeID       string `json:"code_id,omitempty"`
	CodeHash     string `json:"code_hash,omitempty"`
	InlineCode   bool   `json:"eosio_code"`
	CreatedBlock int64  `json:"created_block"`
}
