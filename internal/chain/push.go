package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/keys"
	"github.com/roach88/mytoken/internal/store"
)

// PushTransaction verifies, executes and commits stx. Either every action
// takes effect and the transaction is appended to the log, or the store is
// left untouched and an error is returned.
func (c *Chain) PushTransaction(ctx context.Context, stx ir.SignedTransaction) (ir.TransactionReceipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	receipt, executed, err := c.push(ctx, stx)
	if err != nil {
		c.metrics.Transactions.WithLabelValues(statusFailed).Inc()
		if IsAssertion(err) {
			c.metrics.Assertions.Inc()
		}
		c.logger.Debug("transaction failed",
			"block", c.clock.Pending(),
			"actions", len(stx.Actions),
			"code", string(ErrorCode(err)),
			"error", err)
		return ir.TransactionReceipt{}, err
	}

	c.metrics.Transactions.WithLabelValues(statusExecuted).Inc()
	for _, key := range executed {
		c.metrics.Actions.WithLabelValues(key[0], key[1]).Inc()
	}
	c.logger.Debug("transaction committed",
		"id", receipt.ID,
		"block", receipt.BlockNum,
		"traces", len(receipt.ActionTraces),
		"duration", time.Since(start))
	return receipt, nil
}

// push runs one transaction inside a store transaction. The returned pairs
// are the (code id, action) of every trace whose receiver ran code.
func (c *Chain) push(ctx context.Context, stx ir.SignedTransaction) (ir.TransactionReceipt, [][2]string, error) {
	if len(stx.Actions) == 0 {
		return ir.TransactionReceipt{}, nil, errors.New("transaction has no actions")
	}

	id, err := ir.TransactionID(stx.Transaction)
	if err != nil {
		return ir.TransactionReceipt{}, nil, err
	}
	digest, err := ir.SigningDigest(stx.Transaction)
	if err != nil {
		return ir.TransactionReceipt{}, nil, err
	}

	tx, err := c.store.Begin(ctx)
	if err != nil {
		return ir.TransactionReceipt{}, nil, err
	}
	defer tx.Rollback()

	dup, err := tx.HasTransaction(ctx, id)
	if err != nil {
		return ir.TransactionReceipt{}, nil, err
	}
	if dup {
		return ir.TransactionReceipt{}, nil, newError(ErrCodeDuplicateTx, "transaction %s already executed", id)
	}

	if err := verifyAuthorizations(ctx, tx, stx, digest); err != nil {
		return ir.TransactionReceipt{}, nil, err
	}

	block := c.clock.Pending()
	e := newExecution(c, tx, block)
	for _, a := range stx.Actions {
		if err := e.runTopLevel(ctx, a); err != nil {
			return ir.TransactionReceipt{}, nil, err
		}
	}

	receipt := ir.TransactionReceipt{
		ID:           id,
		BlockNum:     block,
		Status:       ir.StatusExecuted,
		ActionTraces: e.traces,
	}
	traceDigest, err := ir.TraceDigest(receipt)
	if err != nil {
		return ir.TransactionReceipt{}, nil, err
	}

	err = tx.WriteTransaction(ctx, store.LogEntry{
		Transaction: stx,
		Receipt:     receipt,
		TraceDigest: traceDigest,
	})
	if err != nil {
		return ir.TransactionReceipt{}, nil, err
	}
	if err := tx.Commit(); err != nil {
		return ir.TransactionReceipt{}, nil, err
	}
	c.clock.Advance()

	var executed [][2]string
	for i, code := range e.codes {
		if code != "" {
			executed = append(executed, [2]string{code, e.traces[i].Name.String()})
		}
	}
	return receipt, executed, nil
}

// verifyAuthorizations checks that every declared top-level authorization
// is signed for by its actor's key, and that every signature was needed.
func verifyAuthorizations(ctx context.Context, tx *store.Tx, stx ir.SignedTransaction, digest []byte) error {
	used := make([]bool, len(stx.Signatures))
	checked := make(map[ir.PermissionLevel]bool)

	for _, a := range stx.Actions {
		if len(a.Authorization) == 0 {
			return newError(ErrCodeUnsatisfiedAuth, "action %s::%s declares no authorization", a.Account, a.Name)
		}
		for _, level := range a.Authorization {
			if checked[level] {
				continue
			}
			checked[level] = true

			if level.Permission != ir.ActivePerm && level.Permission != ir.OwnerPerm {
				return newError(ErrCodeUnsatisfiedAuth, "permission %s does not exist", level)
			}
			acct, err := tx.GetAccount(ctx, level.Actor)
			if errors.Is(err, store.ErrNotFound) {
				return newError(ErrCodeUnknownAccount, "authorizing account %s does not exist", level.Actor)
			}
			if err != nil {
				return err
			}
			key, err := keys.ParsePublicKey(acct.PublicKey)
			if err != nil {
				return fmt.Errorf("account %s: %w", level.Actor, err)
			}

			satisfied := false
			for i, sig := range stx.Signatures {
				if key.Verify(digest, sig) {
					used[i] = true
					satisfied = true
				}
			}
			if !satisfied {
				return newError(ErrCodeUnsatisfiedAuth, "transaction declares authority %s but does not have signatures for it", level)
			}
		}
	}

	for i, ok := range used {
		if !ok {
			return newError(ErrCodeUnsatisfiedAuth, "transaction bears irrelevant signature %d", i)
		}
	}
	return nil
}
