package contract

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/store"
)

// fakeHost backs RowStore with a real in-memory store transaction.
type fakeHost struct {
	*store.Tx
	receiver ir.Name
	first    ir.Name
	auths    map[ir.Name]bool
	notified []ir.Name
	inline   []ir.IRObject
}

func newFakeHost(t *testing.T, receiver ir.Name) *fakeHost {
	t.Helper()
	s, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { tx.Rollback() })

	return &fakeHost{Tx: tx, receiver: receiver, first: receiver, auths: map[ir.Name]bool{}}
}

func (h *fakeHost) Receiver() ir.Name      { return h.receiver }
func (h *fakeHost) FirstReceiver() ir.Name { return h.first }
func (h *fakeHost) HasAuth(n ir.Name) bool { return h.auths[n] }
func (h *fakeHost) Logger() *slog.Logger   { return slog.New(slog.DiscardHandler) }

func (h *fakeHost) RequireAuth(n ir.Name) error {
	return Check(h.auths[n], "missing authority of "+n.String())
}

func (h *fakeHost) IsAccount(context.Context, ir.Name) (bool, error) { return true, nil }

func (h *fakeHost) RequireRecipient(_ context.Context, n ir.Name) error {
	h.notified = append(h.notified, n)
	return nil
}

func (h *fakeHost) SendInline(_ context.Context, _, _ ir.Name, _ []ir.PermissionLevel, data ir.IRObject) error {
	h.inline = append(h.inline, data)
	return nil
}
