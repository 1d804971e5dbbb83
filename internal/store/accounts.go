package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mytoken/internal/ir"
)

// CreateAccount inserts a new account. Creating an existing account is an
// error.
func (t *Tx) CreateAccount(ctx context.Context, acct ir.Account) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO accounts
		(name, public_key, creator, code_id, code_hash, eosio_code, created_block)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		acct.Name.String(),
		acct.PublicKey,
		acct.Creator.String(),
		acct.CodeID,
		acct.CodeHash,
		acct.InlineCode,
		acct.CreatedBlock,
	)
	if err != nil {
		return fmt.Errorf("create account %s: %w", acct.Name, err)
	}
	return nil
}

// SetCode records the code deployed to an account.
func (t *Tx) SetCode(ctx context.Context, name ir.Name, codeID, codeHash string) error {
	return t.updateAccount(ctx, name, "set code",
		`UPDATE accounts SET code_id = ?, code_hash = ? WHERE name = ?`,
		codeID, codeHash, name.String())
}

// SetABI records the ABI JSON deployed to an account.
func (t *Tx) SetABI(ctx context.Context, name ir.Name, abiJSON []byte) error {
	return t.updateAccount(ctx, name, "set abi",
		`UPDATE accounts SET abi = ? WHERE name = ?`,
		string(abiJSON), name.String())
}

// SetInlineCode grants or revokes the account's eosio.code permission.
func (t *Tx) SetInlineCode(ctx context.Context, name ir.Name, enabled bool) error {
	return t.updateAccount(ctx, name, "set eosio.code",
		`UPDATE accounts SET eosio_code = ? WHERE name = ?`,
		enabled, name.String())
}

func (t *Tx) updateAccount(ctx context.Context, name ir.Name, op, query string, args ...any) error {
	res, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, name, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, name, ErrNotFound)
	}
	return nil
}

// GetAccount reads one account. Returns ErrNotFound if it does not exist.
func (r reader) GetAccount(ctx context.Context, name ir.Name) (ir.Account, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT name, public_key, creator, code_id, code_hash, eosio_code, created_block
		FROM accounts WHERE name = ?
	`, name.String())
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Account{}, fmt.Errorf("get account %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return ir.Account{}, fmt.Errorf("get account %s: %w", name, err)
	}
	return acct, nil
}

// AccountExists reports whether name is a created account.
func (r reader) AccountExists(ctx context.Context, name ir.Name) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE name = ?`, name.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("account exists %s: %w", name, err)
	}
	return true, nil
}

// ListAccounts returns all accounts ordered by creation block, then name.
func (r reader) ListAccounts(ctx context.Context) ([]ir.Account, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT name, public_key, creator, code_id, code_hash, eosio_code, created_block
		FROM accounts
		ORDER BY created_block ASC, name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []ir.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
		out = append(out, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

// GetABI returns the ABI JSON deployed to an account, or nil if none was
// set.
func (r reader) GetABI(ctx context.Context, name ir.Name) ([]byte, error) {
	var abi string
	err := r.q.QueryRowContext(ctx, `SELECT abi FROM accounts WHERE name = ?`, name.String()).Scan(&abi)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get abi %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get abi %s: %w", name, err)
	}
	if abi == "" {
		return nil, nil
	}
	return []byte(abi), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (ir.Account, error) {
	var (
		acct          ir.Account
		name, creator string
		inline        bool
	)
	if err := s.Scan(&name, &acct.PublicKey, &creator, &acct.CodeID, &acct.CodeHash, &inline, &acct.CreatedBlock); err != nil {
		return ir.Account{}, err
	}
	var err error
	if acct.Name, err = parseName(name); err != nil {
		return ir.Account{}, err
	}
	if acct.Creator, err = parseName(creator); err != nil {
		return ir.Account{}, err
	}
	acct.InlineCode = inline
	return acct, nil
}
