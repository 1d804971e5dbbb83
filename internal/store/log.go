package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mytoken/internal/ir"
)

// LogEntry is one committed transaction as stored in the log.
type LogEntry struct {
	Transaction ir.SignedTransaction
	Receipt     ir.TransactionReceipt
	TraceDigest string
}

// WriteTransaction appends a committed transaction and its action traces.
// The transaction ID and block number must both be new.
func (t *Tx) WriteTransaction(ctx context.Context, e LogEntry) error {
	actionsJSON, err := marshalJSON(e.Transaction.Actions)
	if err != nil {
		return fmt.Errorf("write transaction: %w", err)
	}
	sigs := e.Transaction.Signatures
	if sigs == nil {
		sigs = []string{}
	}
	sigsJSON, err := marshalJSON(sigs)
	if err != nil {
		return fmt.Errorf("write transaction: %w", err)
	}

	_, err = t.q.ExecContext(ctx, `
		INSERT INTO transactions
		(block_num, id, nonce, status, actions, signatures, trace_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		e.Receipt.BlockNum,
		e.Receipt.ID,
		e.Transaction.Nonce,
		e.Receipt.Status,
		actionsJSON,
		sigsJSON,
		e.TraceDigest,
	)
	if err != nil {
		return fmt.Errorf("write transaction %s: %w", e.Receipt.ID, err)
	}

	for _, at := range e.Receipt.ActionTraces {
		if err := t.writeActionTrace(ctx, e.Receipt.ID, at); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) writeActionTrace(ctx context.Context, txID string, at ir.ActionTrace) error {
	authJSON, err := marshalJSON(at.Authorization)
	if err != nil {
		return fmt.Errorf("write action trace: %w", err)
	}
	dataJSON, err := marshalData(at.Data)
	if err != nil {
		return fmt.Errorf("write action trace: %w", err)
	}
	hexData, _ := at.HexData.MarshalText()

	_, err = t.q.ExecContext(ctx, `
		INSERT INTO action_traces
		(tx_id, ordinal, creator_ordinal, depth, receiver, account, action, auth, data, hex_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		txID,
		at.Ordinal,
		at.CreatorOrdinal,
		at.Depth,
		at.Receiver.String(),
		at.Account.String(),
		at.Name.String(),
		authJSON,
		dataJSON,
		string(hexData),
	)
	if err != nil {
		return fmt.Errorf("write action trace %s#%d: %w", txID, at.Ordinal, err)
	}
	return nil
}

// SetMeta upserts a chain meta value.
func (t *Tx) SetMeta(ctx context.Context, key, value string) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO chain_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

// GetMeta reads a chain meta value. Returns ErrNotFound if unset.
func (r reader) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := r.q.QueryRowContext(ctx, `SELECT value FROM chain_meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get meta %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, nil
}

// HeadBlock returns the highest committed block number, 0 for an empty log.
func (r reader) HeadBlock(ctx context.Context) (int64, error) {
	var head int64
	err := r.q.QueryRowContext(ctx, `SELECT COALESCE(MAX(block_num), 0) FROM transactions`).Scan(&head)
	if err != nil {
		return 0, fmt.Errorf("head block: %w", err)
	}
	return head, nil
}

// HasTransaction reports whether a transaction ID is already in the log.
func (r reader) HasTransaction(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx, `SELECT 1 FROM transactions WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has transaction %s: %w", id, err)
	}
	return true, nil
}

// ReadTransaction reads one log entry by transaction ID.
func (r reader) ReadTransaction(ctx context.Context, id string) (LogEntry, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT block_num, id, nonce, status, actions, signatures, trace_digest
		FROM transactions WHERE id = ?
	`, id)
	e, err := scanLogEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return LogEntry{}, fmt.Errorf("read transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return LogEntry{}, fmt.Errorf("read transaction %s: %w", id, err)
	}
	if e.Receipt.ActionTraces, err = r.ReadActionTraces(ctx, id); err != nil {
		return LogEntry{}, err
	}
	return e, nil
}

// ReadLog returns the whole transaction log in block order, traces
// included.
func (r reader) ReadLog(ctx context.Context) ([]LogEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT block_num, id, nonce, status, actions, signatures, trace_digest
		FROM transactions
		ORDER BY block_num ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	var entries []LogEntry
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("read log: %w", err)
		}
		entries = append(entries, e)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	// Traces are loaded after the cursor is closed: the pool has a single
	// connection.
	for i := range entries {
		traces, err := r.ReadActionTraces(ctx, entries[i].Receipt.ID)
		if err != nil {
			return nil, err
		}
		entries[i].Receipt.ActionTraces = traces
	}
	return entries, nil
}

// ReadActionTraces returns a transaction's traces in ordinal order.
func (r reader) ReadActionTraces(ctx context.Context, txID string) ([]ir.ActionTrace, error) {
	return r.queryTraces(ctx, "read action traces", `
		SELECT ordinal, creator_ordinal, depth, receiver, account, action, auth, data, hex_data
		FROM action_traces
		WHERE tx_id = ?
		ORDER BY ordinal ASC
	`, txID)
}

// ReadTracesForReceiver returns every trace delivered to receiver across
// the log, in block then ordinal order.
func (r reader) ReadTracesForReceiver(ctx context.Context, receiver ir.Name) ([]ir.ActionTrace, error) {
	return r.queryTraces(ctx, "read traces for receiver", `
		SELECT a.ordinal, a.creator_ordinal, a.depth, a.receiver, a.account, a.action, a.auth, a.data, a.hex_data
		FROM action_traces a
		JOIN transactions t ON t.id = a.tx_id
		WHERE a.receiver = ?
		ORDER BY t.block_num ASC, a.ordinal ASC
	`, receiver.String())
}

func (r reader) queryTraces(ctx context.Context, op, query string, args ...any) ([]ir.ActionTrace, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	traces := []ir.ActionTrace{}
	for rows.Next() {
		at, err := scanActionTrace(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		traces = append(traces, at)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return traces, nil
}

func scanLogEntry(s scanner) (LogEntry, error) {
	var (
		e                     LogEntry
		actionsJSON, sigsJSON string
	)
	err := s.Scan(
		&e.Receipt.BlockNum,
		&e.Receipt.ID,
		&e.Transaction.Nonce,
		&e.Receipt.Status,
		&actionsJSON,
		&sigsJSON,
		&e.TraceDigest,
	)
	if err != nil {
		return LogEntry{}, err
	}
	if err := unmarshalJSON(actionsJSON, &e.Transaction.Actions); err != nil {
		return LogEntry{}, err
	}
	if err := unmarshalJSON(sigsJSON, &e.Transaction.Signatures); err != nil {
		return LogEntry{}, err
	}
	return e, nil
}

func scanActionTrace(s scanner) (ir.ActionTrace, error) {
	var (
		at                          ir.ActionTrace
		receiver, account, action   string
		authJSON, dataJSON, hexData string
	)
	err := s.Scan(
		&at.Ordinal,
		&at.CreatorOrdinal,
		&at.Depth,
		&receiver,
		&account,
		&action,
		&authJSON,
		&dataJSON,
		&hexData,
	)
	if err != nil {
		return ir.ActionTrace{}, err
	}
	if at.Receiver, err = parseName(receiver); err != nil {
		return ir.ActionTrace{}, err
	}
	if at.Account, err = parseName(account); err != nil {
		return ir.ActionTrace{}, err
	}
	if at.Name, err = parseName(action); err != nil {
		return ir.ActionTrace{}, err
	}
	if err := unmarshalJSON(authJSON, &at.Authorization); err != nil {
		return ir.ActionTrace{}, err
	}
	if at.Data, err = unmarshalData(dataJSON); err != nil {
		return ir.ActionTrace{}, err
	}
	if err := at.HexData.UnmarshalText([]byte(hexData)); err != nil {
		return ir.ActionTrace{}, fmt.Errorf("hex data: %w", err)
	}
	return at, nil
}
