package chain

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/roach88/mytoken/internal/contract"
	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/store"
)

// host is the contract.Host for one receiver of one action.
type host struct {
	e          *execution
	receiver   ir.Name
	pa         *pendingAction
	ordinal    int
	recipients *[]ir.Name
	inline     *actionQueue
}

var _ contract.Host = (*host)(nil)

func (h *host) Receiver() ir.Name      { return h.receiver }
func (h *host) FirstReceiver() ir.Name { return h.pa.action.Account }

func (h *host) Logger() *slog.Logger {
	return h.e.logger.With("receiver", h.receiver.String(), "action", h.pa.action.Name.String())
}

func (h *host) HasAuth(actor ir.Name) bool {
	for _, level := range h.pa.action.Authorization {
		if level.Actor == actor {
			return true
		}
	}
	return false
}

func (h *host) RequireAuth(actor ir.Name) error {
	if h.HasAuth(actor) {
		return nil
	}
	return &RuntimeError{
		Code:     ErrCodeMissingAuth,
		Message:  "missing authority of " + actor.String(),
		Receiver: h.receiver,
		Action:   h.pa.action.Name,
	}
}

func (h *host) IsAccount(ctx context.Context, name ir.Name) (bool, error) {
	return h.e.tx.AccountExists(ctx, name)
}

func (h *host) RequireRecipient(ctx context.Context, name ir.Name) error {
	if slices.Contains(*h.recipients, name) {
		return nil
	}
	ok, err := h.e.tx.AccountExists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return newError(ErrCodeUnknownAccount, "cannot notify %s: account does not exist", name)
	}
	*h.recipients = append(*h.recipients, name)
	return nil
}

// SendInline queues account::action. The receiver must have eosio.code,
// and every level must be the receiver's own or one the current action
// already carries (owner also covers active).
func (h *host) SendInline(ctx context.Context, account, action ir.Name, auth []ir.PermissionLevel, data ir.IRObject) error {
	sender, err := h.e.tx.GetAccount(ctx, h.receiver)
	if err != nil {
		return err
	}
	if !sender.InlineCode {
		return &RuntimeError{
			Code:     ErrCodeUnsatisfiedAuth,
			Message:  h.receiver.String() + "@eosio.code is not linked to " + h.receiver.String() + "@active",
			Receiver: h.receiver,
			Action:   h.pa.action.Name,
		}
	}
	for _, level := range auth {
		if level.Actor == h.receiver || h.carries(level) {
			continue
		}
		return &RuntimeError{
			Code:     ErrCodeUnsatisfiedAuth,
			Message:  "inline action " + account.String() + "::" + action.String() + " is not authorized by " + level.String(),
			Receiver: h.receiver,
			Action:   h.pa.action.Name,
		}
	}

	exists, err := h.e.tx.AccountExists(ctx, account)
	if err != nil {
		return err
	}
	if !exists {
		return newError(ErrCodeUnknownAccount, "inline action to unknown account %s", account)
	}

	packed, err := h.e.pack(ctx, account, action, data)
	if err != nil {
		return err
	}
	a := ir.Action{
		Account:       account,
		Name:          action,
		Authorization: slices.Clone(auth),
		Data:          packed,
	}
	decoded, err := h.e.unpack(ctx, a)
	if err != nil {
		return err
	}

	h.inline.Enqueue(pendingAction{
		action:         a,
		data:           decoded,
		depth:          h.pa.depth + 1,
		creatorOrdinal: h.ordinal,
		sender:         h.receiver,
	})
	return nil
}

func (h *host) carries(level ir.PermissionLevel) bool {
	for _, have := range h.pa.action.Authorization {
		if have.Actor != level.Actor {
			continue
		}
		if have.Permission == level.Permission || have.Permission == ir.OwnerPerm && level.Permission == ir.ActivePerm {
			return true
		}
	}
	return false
}

func (h *host) FindRow(ctx context.Context, ref store.TableRef, pk uint64) (ir.TableRow, bool, error) {
	return h.e.tx.FindRow(ctx, ref, pk)
}

func (h *host) ScanRows(ctx context.Context, ref store.TableRef) ([]ir.TableRow, error) {
	return h.e.tx.ScanRows(ctx, ref)
}

func (h *host) InsertRow(ctx context.Context, row ir.TableRow) error {
	if err := h.checkWrite(row.Code); err != nil {
		return err
	}
	ok, err := h.e.tx.AccountExists(ctx, row.Payer)
	if err != nil {
		return err
	}
	if !ok {
		return newError(ErrCodeUnknownAccount, "row payer %s does not exist", row.Payer)
	}
	return h.e.tx.InsertRow(ctx, row)
}

func (h *host) UpdateRow(ctx context.Context, row ir.TableRow) error {
	if err := h.checkWrite(row.Code); err != nil {
		return err
	}
	return h.e.tx.UpdateRow(ctx, row)
}

func (h *host) DeleteRow(ctx context.Context, ref store.TableRef, pk uint64) error {
	if err := h.checkWrite(ref.Code); err != nil {
		return err
	}
	err := h.e.tx.DeleteRow(ctx, ref, pk)
	if errors.Is(err, store.ErrNotFound) {
		return &contract.AssertError{Message: "object passed to erase is not in this multi_index"}
	}
	return err
}

// checkWrite allows a contract to write only its own tables.
func (h *host) checkWrite(code ir.Name) error {
	if code == h.receiver {
		return nil
	}
	return &RuntimeError{
		Code:     ErrCodeTableAccess,
		Message:  "db access violation: " + h.receiver.String() + " cannot write to " + code.String() + " tables",
		Receiver: h.receiver,
		Action:   h.pa.action.Name,
	}
}
