package chain

import (
	"context"
	"fmt"

	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/store"
)

// Mismatch describes a logged transaction whose replay differed.
type Mismatch struct {
	TxID     string `json:"tx_id"`
	BlockNum int64  `json:"block_num"`
	Reason   string `json:"reason"`
}

// ReplayResult summarizes a replay.
type ReplayResult struct {
	Transactions int        `json:"transactions"`
	Mismatches   []Mismatch `json:"mismatches,omitempty"`
}

// OK reports whether every transaction replayed identically.
func (r ReplayResult) OK() bool { return len(r.Mismatches) == 0 }

// Replay pushes each logged transaction onto c, which should be a fresh
// chain with the same genesis key and registry, and compares the new
// receipt with the logged one.
func (c *Chain) Replay(ctx context.Context, log []store.LogEntry) (ReplayResult, error) {
	var res ReplayResult
	for _, entry := range log {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Transactions++

		want := entry.Receipt
		got, err := c.PushTransaction(ctx, entry.Transaction)
		if err != nil {
			res.Mismatches = append(res.Mismatches, c.mismatch(want, "replay failed: "+err.Error()))
			continue
		}

		switch {
		case got.ID != want.ID:
			res.Mismatches = append(res.Mismatches, c.mismatch(want, fmt.Sprintf("id %s, logged %s", got.ID, want.ID)))
		case got.BlockNum != want.BlockNum:
			res.Mismatches = append(res.Mismatches, c.mismatch(want, fmt.Sprintf("block %d, logged %d", got.BlockNum, want.BlockNum)))
		default:
			digest, err := ir.TraceDigest(got)
			if err != nil {
				return res, err
			}
			if digest != entry.TraceDigest {
				res.Mismatches = append(res.Mismatches, c.mismatch(want, "trace digest differs"))
			}
		}
	}
	return res, nil
}

func (c *Chain) mismatch(want ir.TransactionReceipt, reason string) Mismatch {
	c.metrics.ReplayMismatches.Inc()
	c.logger.Warn("replay mismatch", "tx", want.ID, "block", want.BlockNum, "reason", reason)
	return Mismatch{TxID: want.ID, BlockNum: want.BlockNum, Reason: reason}
}

// ReplayStore re-executes src's log on a fresh in-memory chain built with
// opts and src's genesis key.
func ReplayStore(ctx context.Context, src *store.Store, opts ...Option) (ReplayResult, error) {
	key, err := StoredGenesisKey(ctx, src)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}

	log, err := src.ReadLog(ctx)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}

	fresh, err := store.Open(store.MemoryPath)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}
	defer fresh.Close()

	c, err := New(ctx, fresh, key, opts...)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}
	defer c.Close()

	return c.Replay(ctx, log)
}
