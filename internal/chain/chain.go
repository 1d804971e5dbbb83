package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/mytoken/internal/compiler"
	"github.com/roach88/mytoken/internal/contract"
	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/keys"
	"github.com/roach88/mytoken/internal/store"
)

// Chain meta keys.
const (
	metaGenesisKey   = "genesis_key"
	metaChainVersion = "chain_version"
)

// Chain is the single-writer transaction processor.
//
// Thread-safety model:
//   - PushTransaction: safe from any goroutine, serialized internally
//   - Queries: safe from any goroutine; they may block behind a push
type Chain struct {
	mu       sync.Mutex
	store    *store.Store
	registry *contract.Registry
	abis     *compiler.Cache
	ownsABIs bool
	clock    *Clock
	logger   *slog.Logger
	metrics  *Metrics
	genesis  keys.PublicKey

	maxActions int
	maxDepth   int
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Chain) {
		c.logger = l
	}
}

// WithRegistry sets the contracts available to setcode.
func WithRegistry(r *contract.Registry) Option {
	return func(c *Chain) {
		c.registry = r
	}
}

// WithABICache shares a parsed-ABI cache. The chain does not close a
// shared cache.
func WithABICache(cache *compiler.Cache) Option {
	return func(c *Chain) {
		c.abis = cache
	}
}

// WithMetrics sets the counters the chain updates.
func WithMetrics(m *Metrics) Option {
	return func(c *Chain) {
		c.metrics = m
	}
}

// WithMaxActions sets the per-transaction action quota.
//
// Default: 1000 (DefaultMaxActions).
func WithMaxActions(n int) Option {
	return func(c *Chain) {
		c.maxActions = n
	}
}

// WithMaxInlineDepth sets how deeply inline actions may nest.
//
// Default: 4 (DefaultMaxInlineDepth).
func WithMaxInlineDepth(n int) Option {
	return func(c *Chain) {
		c.maxDepth = n
	}
}

// New opens a chain on s. An empty store is initialized with the eosio
// account owned by genesisKey; a store that already holds a chain must
// have been created with the same key.
func New(ctx context.Context, s *store.Store, genesisKey keys.PublicKey, opts ...Option) (*Chain, error) {
	if genesisKey.IsZero() {
		return nil, errors.New("new chain: genesis key is required")
	}

	c := &Chain{
		store:      s,
		logger:     slog.New(slog.DiscardHandler),
		genesis:    genesisKey,
		maxActions: DefaultMaxActions,
		maxDepth:   DefaultMaxInlineDepth,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		c.registry = contract.NewRegistry()
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	if c.abis == nil {
		cache, err := compiler.NewCache(0)
		if err != nil {
			return nil, fmt.Errorf("new chain: %w", err)
		}
		c.abis = cache
		c.ownsABIs = true
	}

	if err := c.bootstrap(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("new chain: %w", err)
	}
	return c, nil
}

// Open opens the chain already held by s, using the genesis key stored in
// it.
func Open(ctx context.Context, s *store.Store, opts ...Option) (*Chain, error) {
	key, err := StoredGenesisKey(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("open chain: %w", err)
	}
	return New(ctx, s, key, opts...)
}

// StoredGenesisKey returns the genesis key s was created with. A store
// that holds no chain yields an error wrapping store.ErrNotFound.
func StoredGenesisKey(ctx context.Context, s *store.Store) (keys.PublicKey, error) {
	genesis, err := s.GetMeta(ctx, metaGenesisKey)
	if err != nil {
		return keys.PublicKey{}, fmt.Errorf("read genesis key: %w", err)
	}
	return keys.ParsePublicKey(genesis)
}

// bootstrap writes genesis state or checks it against an existing store,
// then positions the clock at the store's head block.
func (c *Chain) bootstrap(ctx context.Context) error {
	existing, err := c.store.GetMeta(ctx, metaGenesisKey)
	switch {
	case err == nil:
		if existing != c.genesis.String() {
			return fmt.Errorf("store was created with genesis key %s, not %s", existing, c.genesis)
		}
		head, err := c.store.HeadBlock(ctx)
		if err != nil {
			return err
		}
		c.clock = NewClockAt(head)
		return nil
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	tx, err := c.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.CreateAccount(ctx, ir.Account{
		Name:      ir.SystemAccount,
		PublicKey: c.genesis.String(),
		Creator:   ir.SystemAccount,
	})
	if err != nil {
		return err
	}
	if err := tx.SetMeta(ctx, metaGenesisKey, c.genesis.String()); err != nil {
		return err
	}
	if err := tx.SetMeta(ctx, metaChainVersion, ir.ChainVersion); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	c.clock = NewClock()
	c.logger.Debug("chain initialized", "genesis_key", c.genesis.String())
	return nil
}

// Close releases the chain's own resources. The store is left open.
func (c *Chain) Close() {
	if c.ownsABIs && c.abis != nil {
		c.abis.Close()
		c.ownsABIs = false
	}
}

// GenesisKey returns the key owning the eosio account.
func (c *Chain) GenesisKey() keys.PublicKey { return c.genesis }

// HeadBlock returns the last committed block number.
func (c *Chain) HeadBlock() int64 { return c.clock.Head() }

// Metrics returns the chain's counters.
func (c *Chain) Metrics() *Metrics { return c.metrics }

// Registry returns the contracts available to setcode.
func (c *Chain) Registry() *contract.Registry { return c.registry }
