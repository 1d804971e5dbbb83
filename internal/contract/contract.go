package contract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/store"
)

// Code is a deployable contract.
type Code interface {
	// Apply executes action with its decoded arguments. Receiver and first
	// receiver differ when the call is a notification.
	Apply(ctx context.Context, h Host, action ir.Name, data ir.IRObject) error
}

// RowStore is the table storage a Host exposes. *store.Tx satisfies it.
type RowStore interface {
	FindRow(ctx context.Context, ref store.TableRef, pk uint64) (ir.TableRow, bool, error)
	ScanRows(ctx context.Context, ref store.TableRef) ([]ir.TableRow, error)
	InsertRow(ctx context.Context, row ir.TableRow) error
	UpdateRow(ctx context.Context, row ir.TableRow) error
	DeleteRow(ctx context.Context, ref store.TableRef, pk uint64) error
}

// Host is the chain API available to a running action.
type Host interface {
	RowStore

	// Receiver is the account whose code is running.
	Receiver() ir.Name
	// FirstReceiver is the account the action was sent to.
	FirstReceiver() ir.Name

	// RequireAuth fails unless actor authorized the action at any
	// permission.
	RequireAuth(actor ir.Name) error
	// HasAuth reports whether actor authorized the action.
	HasAuth(actor ir.Name) bool
	IsAccount(ctx context.Context, name ir.Name) (bool, error)

	// RequireRecipient schedules a notification of the current action to
	// name. Notifying the receiver or an already notified account is a
	// no-op.
	RequireRecipient(ctx context.Context, name ir.Name) error
	// SendInline queues an action to run after the current one, in the
	// same transaction.
	SendInline(ctx context.Context, account, action ir.Name, auth []ir.PermissionLevel, data ir.IRObject) error

	Logger() *slog.Logger
}

// Handler runs one action.
type Handler func(ctx context.Context, h Host, data ir.IRObject) error

// Action adapts a typed handler: data is decoded into T before fn runs.
func Action[T any](fn func(ctx context.Context, h Host, args T) error) Handler {
	return func(ctx context.Context, h Host, data ir.IRObject) error {
		var args T
		if err := Decode(data, &args); err != nil {
			return err
		}
		return fn(ctx, h, args)
	}
}

// Dispatcher is a Code built from per-action handlers. Notifications are
// ignored: handlers only run when the receiver is the first receiver.
type Dispatcher map[ir.Name]Handler

// Apply implements Code.
func (d Dispatcher) Apply(ctx context.Context, h Host, action ir.Name, data ir.IRObject) error {
	if h.Receiver() != h.FirstReceiver() {
		return nil
	}
	fn, ok := d[action]
	if !ok {
		return fmt.Errorf("%w: %s::%s", ErrUnknownAction, h.Receiver(), action)
	}
	return fn(ctx, h, data)
}

// With returns a copy of d with extra handlers, replacing any with the same
// action name.
func (d Dispatcher) With(extra Dispatcher) Dispatcher {
	out := make(Dispatcher, len(d)+len(extra))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
