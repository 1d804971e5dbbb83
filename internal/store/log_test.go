package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/roach88/mytoken/internal/ir"
)

func testEntry(id string, block int64) LogEntry {
	auth := []ir.PermissionLevel{ir.Active(name("alice"))}
	return LogEntry{
		Transaction: ir.SignedTransaction{
			Transaction: ir.Transaction{
				Nonce: block,
				Actions: []ir.Action{{
					Account:       name("token"),
					Name:          name("issue"),
					Authorization: auth,
					Data:          ir.HexBytes{0x01, 0x02},
				}},
			},
			Signatures: []string{"3045"},
		},
		Receipt: ir.TransactionReceipt{
			ID:       id,
			BlockNum: block,
			Status:   ir.StatusExecuted,
			ActionTraces: []ir.ActionTrace{
				{
					Ordinal:       1,
					Receiver:      name("token"),
					Account:       name("token"),
					Name:          name("issue"),
					Authorization: auth,
					Data:          ir.IRObject{"to": ir.IRString("alice"), "quantity": ir.IRString("100.0000 SYS")},
					HexData:       ir.HexBytes{0x01, 0x02},
				},
				{
					Ordinal:        2,
					CreatorOrdinal: 1,
					Depth:          1,
					Receiver:       name("alice"),
					Account:        name("token"),
					Name:           name("transfer"),
					Authorization:  auth,
					Data:           ir.IRObject{"memo": ir.IRString("")},
					HexData:        ir.HexBytes{0x03},
				},
			},
		},
		TraceDigest: "digest-" + id,
	}
}

func TestWriteAndReadTransaction(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	entry := testEntry("tx1", 1)

	withTx(t, s, func(ctx context.Context, tx *Tx) error {
		return tx.WriteTransaction(ctx, entry)
	})

	got, err := s.ReadTransaction(ctx, "tx1")
	if err != nil {
		t.Fatalf("ReadTransaction() failed: %v", err)
	}
	if !reflect.DeepEqual(got, entry) {
		t.Errorf("ReadTransaction() =\n%+v\nwant\n%+v", got, entry)
	}

	ok, err := s.HasTransaction(ctx, "tx1")
	if err != nil || !ok {
		t.Errorf("HasTransaction() = %v, %v; want true", ok, err)
	}
}

func TestReadTransaction_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadTransaction(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadTransaction() error = %v, want ErrNotFound", err)
	}
}

func TestWriteTransaction_DuplicateBlock(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	withTx(t, s, func(ctx context.Context, tx *Tx) error {
		return tx.WriteTransaction(ctx, testEntry("tx1", 1))
	})

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	defer tx.Rollback()
	if err := tx.WriteTransaction(ctx, testEntry("tx2", 1)); err == nil {
		t.Error("expected error reusing a block number")
	}
}

func TestReadLog_BlockOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	withTx(t, s, func(ctx context.Context, tx *Tx) error {
		for _, e := range []LogEntry{testEntry("c", 3), testEntry("a", 1), testEntry("b", 2)} {
			if err := tx.WriteTransaction(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})

	log, err := s.ReadLog(ctx)
	if err != nil {
		t.Fatalf("ReadLog() failed: %v", err)
	}
	if len(log) != 3 {
		t.Fatalf("len(ReadLog()) = %d, want 3", len(log))
	}
	for i, id := range []string{"a", "b", "c"} {
		if log[i].Receipt.ID != id {
			t.Errorf("log[%d].ID = %s, want %s", i, log[i].Receipt.ID, id)
		}
		if len(log[i].Receipt.ActionTraces) != 2 {
			t.Errorf("log[%d] has %d traces, want 2", i, len(log[i].Receipt.ActionTraces))
		}
	}

	head, err := s.HeadBlock(ctx)
	if err != nil || head != 3 {
		t.Errorf("HeadBlock() = %d, %v; want 3", head, err)
	}
}

func TestReadTracesForReceiver(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	withTx(t, s, func(ctx context.Context, tx *Tx) error {
		if err := tx.WriteTransaction(ctx, testEntry("a", 1)); err != nil {
			return err
		}
		return tx.WriteTransaction(ctx, testEntry("b", 2))
	})

	traces, err := s.ReadTracesForReceiver(ctx, name("alice"))
	if err != nil {
		t.Fatalf("ReadTracesForReceiver() failed: %v", err)
	}
	if len(traces) != 2 {
		t.Fatalf("len(traces) = %d, want 2", len(traces))
	}
	for _, at := range traces {
		if !at.IsNotification() || at.Name != name("transfer") {
			t.Errorf("unexpected trace %+v", at)
		}
	}
}

func TestMeta(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.GetMeta(ctx, "genesis_key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMeta(unset) error = %v, want ErrNotFound", err)
	}

	withTx(t, s, func(ctx context.Context, tx *Tx) error {
		if err := tx.SetMeta(ctx, "genesis_key", "one"); err != nil {
			return err
		}
		return tx.SetMeta(ctx, "genesis_key", "two")
	})

	got, err := s.GetMeta(ctx, "genesis_key")
	if err != nil || got != "two" {
		t.Errorf("GetMeta() = %q, %v; want %q", got, err, "two")
	}
}
