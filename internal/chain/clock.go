package chain

import "sync/atomic"

// Clock is the chain's block counter.
//
// Every committed transaction is stamped with the next block number, so
// the log is totally ordered without wall-clock time and a replay of the
// same log yields the same numbers. Block 0 is genesis.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// though the chain only advances it while holding its push lock.
type Clock struct {
	block atomic.Int64
}

// NewClock creates a clock at genesis.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose last committed block is head.
// Used when reopening a store that already holds a log.
func NewClockAt(head int64) *Clock {
	c := &Clock{}
	c.block.Store(head)
	return c
}

// Pending returns the number the next committed block will get.
func (c *Clock) Pending() int64 {
	return c.block.Load() + 1
}

// Advance records a committed block and returns its number.
func (c *Clock) Advance() int64 {
	return c.block.Add(1)
}

// Head returns the last committed block number.
func (c *Clock) Head() int64 {
	return c.block.Load()
}
