package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"chain_meta", "accounts", "table_rows", "transactions", "action_traces"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Open(%q) failed: %v", MemoryPath, err)
	}
	defer s.Close()

	head, err := s.HeadBlock(context.Background())
	if err != nil {
		t.Fatalf("HeadBlock() failed: %v", err)
	}
	if head != 0 {
		t.Errorf("HeadBlock() = %d, want 0", head)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/chain.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createFileStore(t)

	tests := []struct {
		name, want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.want); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestMigration_ReceiverIndex(t *testing.T) {
	s := createFileStore(t)

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_action_traces_receiver'",
	).Scan(&name)
	if err != nil {
		t.Fatalf("receiver index missing: %v", err)
	}
}

func TestTx_RollbackDiscardsWrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	if err := tx.CreateAccount(ctx, testAccount("alice", 1)); err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}

	// The Tx sees its own write.
	exists, err := tx.AccountExists(ctx, name("alice"))
	if err != nil || !exists {
		t.Fatalf("AccountExists() inside tx = %v, %v; want true", exists, err)
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() failed: %v", err)
	}

	exists, err = s.AccountExists(ctx, name("alice"))
	if err != nil {
		t.Fatalf("AccountExists() failed: %v", err)
	}
	if exists {
		t.Error("account visible after rollback")
	}
}

func TestTx_RollbackAfterCommitIsNoop(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	if err := tx.SetMeta(ctx, "k", "v"); err != nil {
		t.Fatalf("SetMeta() failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("Rollback() after Commit() = %v, want nil", err)
	}

	got, err := s.GetMeta(ctx, "k")
	if err != nil || got != "v" {
		t.Errorf("GetMeta() = %q, %v; want %q", got, err, "v")
	}
}
