package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/mytoken/internal/ir"
)

// createTestStore creates a new in-memory store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createFileStore creates an on-disk store; pragmas like journal_mode only
// report their configured value for file databases.
func createFileStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "chain.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func name(s string) ir.Name { return ir.MustName(s) }

func testAccount(n string, block int64) ir.Account {
	return ir.Account{
		Name:         name(n),
		PublicKey:    "EOS6MRyAjQq8ud7hVNYcfnVPJqcVpscN5So8BhtHuGYqET5GDW5CV",
		Creator:      ir.SystemAccount,
		CreatedBlock: block,
	}
}

// withTx runs fn in a committed transaction.
func withTx(t *testing.T, s *Store, fn func(ctx context.Context, tx *Tx) error) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	if err := fn(ctx, tx); err != nil {
		tx.Rollback()
		t.Fatalf("tx failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
}
