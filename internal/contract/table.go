package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/store"
)

// Table is a typed view over one contract table in one scope. Rows are
// stored as JSON; T's fields should marshal to the ABI row layout.
type Table[T any] struct {
	host Host
	ref  store.TableRef
	key  func(*T) uint64
}

// NewTable opens table in scope of code. key returns a row's primary key.
func NewTable[T any](h Host, code, scope ir.Name, table ir.Name, key func(*T) uint64) *Table[T] {
	return &Table[T]{
		host: h,
		ref:  store.TableRef{Code: code, Scope: scope, Table: table},
		key:  key,
	}
}

// Find returns the row with primary key pk, or false.
func (t *Table[T]) Find(ctx context.Context, pk uint64) (*T, bool, error) {
	row, ok, err := t.host.FindRow(ctx, t.ref, pk)
	if err != nil || !ok {
		return nil, false, err
	}
	v, err := t.decode(row)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Get is Find that fails with msg as an assertion when the row is missing.
func (t *Table[T]) Get(ctx context.Context, pk uint64, msg string) (*T, error) {
	v, ok, err := t.Find(ctx, pk)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &AssertError{Message: msg}
	}
	return v, nil
}

// All returns every row in primary key order.
func (t *Table[T]) All(ctx context.Context) ([]*T, error) {
	rows, err := t.host.ScanRows(ctx, t.ref)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		v, err := t.decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Emplace inserts v billed to payer.
func (t *Table[T]) Emplace(ctx context.Context, payer ir.Name, v *T) error {
	pk := t.key(v)
	if _, ok, err := t.host.FindRow(ctx, t.ref, pk); err != nil {
		return err
	} else if ok {
		return &AssertError{Message: "could not insert object, most likely a uniqueness constraint was violated"}
	}
	row, err := t.encode(payer, pk, v)
	if err != nil {
		return err
	}
	return t.host.InsertRow(ctx, row)
}

// SamePayer passed to Modify keeps the row's current payer.
const SamePayer ir.Name = 0

// Modify replaces the stored row with v. The primary key must not change.
func (t *Table[T]) Modify(ctx context.Context, payer ir.Name, v *T) error {
	pk := t.key(v)
	existing, ok, err := t.host.FindRow(ctx, t.ref, pk)
	if err != nil {
		return err
	}
	if !ok {
		return &AssertError{Message: "object passed to modify is not in this multi_index"}
	}
	if payer == SamePayer {
		payer = existing.Payer
	}
	row, err := t.encode(payer, pk, v)
	if err != nil {
		return err
	}
	return t.host.UpdateRow(ctx, row)
}

// Erase removes v's row.
func (t *Table[T]) Erase(ctx context.Context, v *T) error {
	pk := t.key(v)
	if _, ok, err := t.host.FindRow(ctx, t.ref, pk); err != nil {
		return err
	} else if !ok {
		return &AssertError{Message: "object passed to erase is not in this multi_index"}
	}
	return t.host.DeleteRow(ctx, t.ref, pk)
}

// AvailablePrimaryKey returns one past the largest primary key in use, or
// 0 for an empty table.
func (t *Table[T]) AvailablePrimaryKey(ctx context.Context) (uint64, error) {
	rows, err := t.host.ScanRows(ctx, t.ref)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	last := rows[len(rows)-1].PrimaryKey
	if last == math.MaxUint64 {
		return 0, &AssertError{Message: "next primary key in table is at autoincrement limit"}
	}
	return last + 1, nil
}

func (t *Table[T]) decode(row ir.TableRow) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(row.Value, v); err != nil {
		return nil, fmt.Errorf("decode %s row %d: %w", t.ref, row.PrimaryKey, err)
	}
	return v, nil
}

func (t *Table[T]) encode(payer ir.Name, pk uint64, v *T) (ir.TableRow, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return ir.TableRow{}, fmt.Errorf("encode %s row %d: %w", t.ref, pk, err)
	}
	return ir.TableRow{
		Code:       t.ref.Code,
		Scope:      t.ref.Scope,
		Table:      t.ref.Table,
		PrimaryKey: pk,
		Payer:      payer,
		Value:      b,
	}, nil
}
