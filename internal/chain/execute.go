package chain

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/mytoken/internal/codec"
	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/store"
)

// execution is the state of one transaction being applied.
type execution struct {
	c      *Chain
	tx     *store.Tx
	block  int64
	quota  *QuotaEnforcer
	logger *slog.Logger

	traces []ir.ActionTrace
	// codes holds the code id that ran for each trace, for metrics.
	codes []string
	abis  map[ir.Name]*ir.ABI
}

func newExecution(c *Chain, tx *store.Tx, block int64) *execution {
	return &execution{
		c:      c,
		tx:     tx,
		block:  block,
		quota:  NewQuotaEnforcer(c.maxActions),
		logger: c.logger.With("block", block),
		abis:   make(map[ir.Name]*ir.ABI),
	}
}

// runTopLevel decodes and executes one of the transaction's own actions.
func (e *execution) runTopLevel(ctx context.Context, a ir.Action) error {
	data, err := e.unpack(ctx, a)
	if err != nil {
		return err
	}
	return e.run(ctx, pendingAction{action: a, data: data})
}

// run executes an action at its first receiver, then at every account it
// notified, then its inline actions in send order. Each inline action is
// run to completion, with its own notifications and inline actions,
// before the next one starts.
func (e *execution) run(ctx context.Context, pa pendingAction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if pa.depth > e.c.maxDepth {
		return newError(ErrCodeDepthExceeded, "max inline action depth %d exceeded by %s::%s",
			e.c.maxDepth, pa.action.Account, pa.action.Name)
	}

	var inline actionQueue
	recipients := []ir.Name{pa.action.Account}
	first := 0

	for i := 0; i < len(recipients); i++ {
		if err := e.quota.Check(); err != nil {
			return err
		}

		receiver := recipients[i]
		ordinal := len(e.traces) + 1
		creator := pa.creatorOrdinal
		if i == 0 {
			first = ordinal
		} else {
			creator = first
		}

		e.traces = append(e.traces, ir.ActionTrace{
			Ordinal:        ordinal,
			CreatorOrdinal: creator,
			Depth:          pa.depth,
			Receiver:       receiver,
			Account:        pa.action.Account,
			Name:           pa.action.Name,
			Authorization:  pa.action.Authorization,
			Data:           pa.data,
			HexData:        pa.action.Data,
		})
		e.codes = append(e.codes, "")

		h := &host{
			e:          e,
			receiver:   receiver,
			pa:         &pa,
			ordinal:    ordinal,
			recipients: &recipients,
			inline:     &inline,
		}
		code, err := e.apply(ctx, h)
		if err != nil {
			return err
		}
		e.codes[ordinal-1] = code
	}

	for {
		next, ok := inline.TryDequeue()
		if !ok {
			break
		}
		if err := e.run(ctx, next); err != nil {
			return err
		}
	}
	return nil
}

// apply runs the receiver's code, if any, and returns its code id.
func (e *execution) apply(ctx context.Context, h *host) (string, error) {
	act := h.pa.action

	if h.receiver == ir.SystemAccount {
		if act.Account != ir.SystemAccount {
			return "", nil
		}
		if err := e.applySystem(ctx, h); err != nil {
			return "", classify(err, h.receiver, act.Name)
		}
		return ir.SystemAccount.String(), nil
	}

	acct, err := e.tx.GetAccount(ctx, h.receiver)
	if errors.Is(err, store.ErrNotFound) {
		return "", newError(ErrCodeUnknownAccount, "account %s does not exist", h.receiver)
	}
	if err != nil {
		return "", err
	}
	if acct.CodeID == "" {
		return "", nil
	}

	code, ok := e.c.registry.Lookup(acct.CodeID)
	if !ok {
		return "", &RuntimeError{
			Code:     ErrCodeUnknownCode,
			Message:  "no contract registered for code id " + acct.CodeID,
			Receiver: h.receiver,
			Action:   act.Name,
		}
	}

	e.logger.Debug("apply",
		"receiver", h.receiver.String(),
		"action", act.Account.String()+"::"+act.Name.String(),
		"depth", h.pa.depth)

	if err := code.Apply(ctx, h, act.Name, h.pa.data); err != nil {
		return "", classify(err, h.receiver, act.Name)
	}
	return acct.CodeID, nil
}

// unpack validates an action against its account's ABI and decodes its
// data.
func (e *execution) unpack(ctx context.Context, a ir.Action) (ir.IRObject, error) {
	abi, err := e.abiFor(ctx, a.Account)
	if err != nil {
		return nil, err
	}
	if _, ok := abi.Action(a.Name.String()); !ok {
		return nil, &RuntimeError{
			Code:     ErrCodeUnknownAction,
			Message:  "action not declared in ABI",
			Receiver: a.Account,
			Action:   a.Name,
		}
	}
	data, err := codec.UnpackAction(abi, a.Name.String(), a.Data)
	if err != nil {
		return nil, &RuntimeError{
			Code:     ErrCodeInvalidData,
			Message:  err.Error(),
			Receiver: a.Account,
			Action:   a.Name,
			Err:      err,
		}
	}
	return data, nil
}

// pack encodes inline action data with the target account's ABI.
func (e *execution) pack(ctx context.Context, account, action ir.Name, data ir.IRObject) ([]byte, error) {
	abi, err := e.abiFor(ctx, account)
	if err != nil {
		return nil, err
	}
	if _, ok := abi.Action(action.String()); !ok {
		return nil, &RuntimeError{
			Code:     ErrCodeUnknownAction,
			Message:  "action not declared in ABI",
			Receiver: account,
			Action:   action,
		}
	}
	packed, err := codec.PackAction(abi, action.String(), data)
	if err != nil {
		return nil, &RuntimeError{
			Code:     ErrCodeInvalidData,
			Message:  err.Error(),
			Receiver: account,
			Action:   action,
			Err:      err,
		}
	}
	return packed, nil
}

// abiFor returns the ABI deployed to account as seen by this transaction.
func (e *execution) abiFor(ctx context.Context, account ir.Name) (*ir.ABI, error) {
	if account == ir.SystemAccount {
		return SystemABI, nil
	}
	if abi, ok := e.abis[account]; ok {
		return abi, nil
	}

	raw, err := e.tx.GetABI(ctx, account)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(ErrCodeUnknownAccount, "account %s does not exist", account)
	}
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, newError(ErrCodeUnknownAction, "account %s has no ABI", account)
	}

	abi, err := e.c.abis.Compile(account.String()+".abi", raw)
	if err != nil {
		return nil, err
	}
	e.abis[account] = abi
	return abi, nil
}
