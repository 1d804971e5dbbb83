package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mytoken/internal/ir"
)

// TableRef addresses one contract table within a scope.
type TableRef struct {
	Code  ir.Name
	Scope ir.Name
	Table ir.Name
}

func (ref TableRef) String() string {
	return fmt.Sprintf("%s/%s/%s", ref.Code, ref.Scope, ref.Table)
}

// FindRow reads the row with primary key pk. The bool is false when no such
// row exists.
func (r reader) FindRow(ctx context.Context, ref TableRef, pk uint64) (ir.TableRow, bool, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT code, scope, tbl, primary_key, payer, value
		FROM table_rows
		WHERE code = ? AND scope = ? AND tbl = ? AND primary_key = ?
	`, ref.Code.String(), formatKey(uint64(ref.Scope)), ref.Table.String(), formatKey(pk))

	tr, err := scanTableRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.TableRow{}, false, nil
	}
	if err != nil {
		return ir.TableRow{}, false, fmt.Errorf("find row %s[%d]: %w", ref, pk, err)
	}
	return tr, true, nil
}

// ScanRows returns every row of a table in a scope, ordered by primary key.
func (r reader) ScanRows(ctx context.Context, ref TableRef) ([]ir.TableRow, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT code, scope, tbl, primary_key, payer, value
		FROM table_rows
		WHERE code = ? AND scope = ? AND tbl = ?
		ORDER BY primary_key COLLATE BINARY ASC
	`, ref.Code.String(), formatKey(uint64(ref.Scope)), ref.Table.String())
	if err != nil {
		return nil, fmt.Errorf("scan rows %s: %w", ref, err)
	}
	defer rows.Close()

	var out []ir.TableRow
	for rows.Next() {
		tr, err := scanTableRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rows %s: %w", ref, err)
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan rows %s: %w", ref, err)
	}
	return out, nil
}

// InsertRow stores a new row. Inserting over an existing primary key is an
// error.
func (t *Tx) InsertRow(ctx context.Context, row ir.TableRow) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO table_rows (code, scope, tbl, primary_key, payer, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		row.Code.String(),
		formatKey(uint64(row.Scope)),
		row.Table.String(),
		formatKey(row.PrimaryKey),
		row.Payer.String(),
		string(row.Value),
	)
	if err != nil {
		return fmt.Errorf("insert row %s[%d]: %w", refOf(row), row.PrimaryKey, err)
	}
	return nil
}

// UpdateRow replaces the payer and value of an existing row.
func (t *Tx) UpdateRow(ctx context.Context, row ir.TableRow) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE table_rows SET payer = ?, value = ?
		WHERE code = ? AND scope = ? AND tbl = ? AND primary_key = ?
	`,
		row.Payer.String(),
		string(row.Value),
		row.Code.String(),
		formatKey(uint64(row.Scope)),
		row.Table.String(),
		formatKey(row.PrimaryKey),
	)
	if err != nil {
		return fmt.Errorf("update row %s[%d]: %w", refOf(row), row.PrimaryKey, err)
	}
	return requireAffected(res, fmt.Sprintf("update row %s[%d]", refOf(row), row.PrimaryKey))
}

// DeleteRow removes a row.
func (t *Tx) DeleteRow(ctx context.Context, ref TableRef, pk uint64) error {
	res, err := t.q.ExecContext(ctx, `
		DELETE FROM table_rows
		WHERE code = ? AND scope = ? AND tbl = ? AND primary_key = ?
	`, ref.Code.String(), formatKey(uint64(ref.Scope)), ref.Table.String(), formatKey(pk))
	if err != nil {
		return fmt.Errorf("delete row %s[%d]: %w", ref, pk, err)
	}
	return requireAffected(res, fmt.Sprintf("delete row %s[%d]", ref, pk))
}

func refOf(row ir.TableRow) TableRef {
	return TableRef{Code: row.Code, Scope: row.Scope, Table: row.Table}
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

func scanTableRow(s scanner) (ir.TableRow, error) {
	var code, scope, tbl, pk, payer, value string
	if err := s.Scan(&code, &scope, &tbl, &pk, &payer, &value); err != nil {
		return ir.TableRow{}, err
	}

	var (
		tr  ir.TableRow
		err error
	)
	if tr.Code, err = parseName(code); err != nil {
		return ir.TableRow{}, err
	}
	rawScope, err := parseKey(scope)
	if err != nil {
		return ir.TableRow{}, err
	}
	tr.Scope = ir.Name(rawScope)
	if tr.Table, err = parseName(tbl); err != nil {
		return ir.TableRow{}, err
	}
	if tr.PrimaryKey, err = parseKey(pk); err != nil {
		return ir.TableRow{}, err
	}
	if tr.Payer, err = parseName(payer); err != nil {
		return ir.TableRow{}, err
	}
	tr.Value = []byte(value)
	return tr, nil
}
