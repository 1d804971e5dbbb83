package store

import (
	"context"
	"errors"
	"testing"
)

func TestCreateAccount_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	withTx(t, s, func(ctx context.Context, tx *Tx) error {
		return tx.CreateAccount(ctx, testAccount("alice", 3))
	})

	got, err := s.GetAccount(ctx, name("alice"))
	if err != nil {
		t.Fatalf("GetAccount() failed: %v", err)
	}
	want := testAccount("alice", 3)
	if got != want {
		t.Errorf("GetAccount() = %+v, want %+v", got, want)
	}
}

func TestCreateAccount_Duplicate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	withTx(t, s, func(ctx context.Context, tx *Tx) error {
		return tx.CreateAccount(ctx, testAccount("alice", 1))
	})

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	defer tx.Rollback()
	if err := tx.CreateAccount(ctx, testAccount("alice", 2)); err == nil {
		t.Error("expected error creating duplicate account")
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetAccount(context.Background(), name("nobody"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAccount() error = %v, want ErrNotFound", err)
	}
}

func TestSetCodeABIAndInline(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	abi := []byte(`{"version":"eosio::abi/1.1"}`)

	withTx(t, s, func(ctx context.Context, tx *Tx) error {
		if err := tx.CreateAccount(ctx, testAccount("token", 1)); err != nil {
			return err
		}
		if err := tx.SetCode(ctx, name("token"), "mytoken", "ab12"); err != nil {
			return err
		}
		if err := tx.SetABI(ctx, name("token"), abi); err != nil {
			return err
		}
		return tx.SetInlineCode(ctx, name("token"), true)
	})

	acct, err := s.GetAccount(ctx, name("token"))
	if err != nil {
		t.Fatalf("GetAccount() failed: %v", err)
	}
	if acct.CodeID != "mytoken" || acct.CodeHash != "ab12" || !acct.InlineCode {
		t.Errorf("account = %+v, want code mytoken/ab12 with eosio.code", acct)
	}

	got, err := s.GetABI(ctx, name("token"))
	if err != nil {
		t.Fatalf("GetABI() failed: %v", err)
	}
	if string(got) != string(abi) {
		t.Errorf("GetABI() = %s, want %s", got, abi)
	}
}

func TestGetABI_Unset(t *testing.T) {
	s := createTestStore(t)

	withTx(t, s, func(ctx context.Context, tx *Tx) error {
		return tx.CreateAccount(ctx, testAccount("alice", 1))
	})

	got, err := s.GetABI(context.Background(), name("alice"))
	if err != nil {
		t.Fatalf("GetABI() failed: %v", err)
	}
	if got != nil {
		t.Errorf("GetABI() = %s, want nil", got)
	}
}

func TestSetCode_UnknownAccount(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	defer tx.Rollback()

	err = tx.SetCode(ctx, name("ghost"), "mytoken", "00")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("SetCode() error = %v, want ErrNotFound", err)
	}
}

func TestListAccounts_Order(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	withTx(t, s, func(ctx context.Context, tx *Tx) error {
		for _, a := range []struct {
			name  string
			block int64
		}{{"carol", 2}, {"bob", 1}, {"alice", 2}} {
			if err := tx.CreateAccount(ctx, testAccount(a.name, a.block)); err != nil {
				return err
			}
		}
		return nil
	})

	accts, err := s.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts() failed: %v", err)
	}
	want := []string{"bob", "alice", "carol"}
	if len(accts) != len(want) {
		t.Fatalf("len(ListAccounts()) = %d, want %d", len(accts), len(want))
	}
	for i, a := range accts {
		if a.Name.String() != want[i] {
			t.Errorf("accounts[%d] = %s, want %s", i, a.Name, want[i])
		}
	}
}
