package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/mytoken/internal/chain"
	"github.com/roach88/mytoken/internal/compiler"
	"github.com/roach88/mytoken/internal/contract"
	"github.com/roach88/mytoken/internal/contract/token"
	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/keys"
	"github.com/roach88/mytoken/internal/store"
	"github.com/roach88/mytoken/internal/testutil"
)

// KeySource returns the key pair for a new account.
type KeySource func(name string) (*keys.PrivateKey, error)

// RandomKeys generates a fresh key pair for every account.
func RandomKeys(string) (*keys.PrivateKey, error) { return keys.Generate() }

// SeededKeys derives each account's key from its name, so the same
// accounts always get the same keys.
func SeededKeys(name string) (*keys.PrivateKey, error) { return keys.FromSeed("account/" + name), nil }

// Harness owns a chain and the keys of the accounts it created.
//
// A Harness is safe for concurrent use; transactions are serialized by the
// chain.
type Harness struct {
	store   *store.Store
	chain   *chain.Chain
	abis    *compiler.Cache
	logger  *slog.Logger
	names   testutil.NameGenerator
	nonces  *testutil.NonceSequence
	keyFor  KeySource
	keyring *keyring

	ownsABIs     bool
	storePath    string
	registry     *contract.Registry
	chainOpts    []chain.Option
	contractName testutil.NameGenerator
	genesisSeed  string
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger for the harness and its chain.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// WithStorePath keeps chain state in a SQLite file instead of memory, so
// it can be inspected with the trace and replay commands afterwards.
func WithStorePath(path string) Option {
	return func(h *Harness) {
		h.storePath = path
	}
}

// WithRegistry sets the contract codes that can be deployed. The default
// registry holds the token codes.
func WithRegistry(r *contract.Registry) Option {
	return func(h *Harness) {
		h.registry = r
	}
}

// WithABICache shares a parsed-ABI cache between harnesses.
func WithABICache(c *compiler.Cache) Option {
	return func(h *Harness) {
		h.abis = c
	}
}

// WithChainOptions passes extra options to the chain.
func WithChainOptions(opts ...chain.Option) Option {
	return func(h *Harness) {
		h.chainOpts = append(h.chainOpts, opts...)
	}
}

// WithNameGenerator sets how CreateRandomAccounts names accounts.
//
// Default: RandomNames.
func WithNameGenerator(g testutil.NameGenerator) Option {
	return func(h *Harness) {
		h.names = g
	}
}

// WithContractNames sets how Deploy names contract accounts.
//
// Default: RandomNames.
func WithContractNames(g testutil.NameGenerator) Option {
	return func(h *Harness) {
		h.contractName = g
	}
}

// WithKeySource sets how account keys are made.
//
// Default: RandomKeys.
func WithKeySource(k KeySource) Option {
	return func(h *Harness) {
		h.keyFor = k
	}
}

// WithGenesisSeed derives the eosio key from seed instead of generating
// it.
func WithGenesisSeed(seed string) Option {
	return func(h *Harness) {
		h.genesisSeed = seed
	}
}

// Deterministic makes every run with the same inputs produce the same
// keys, names and transaction IDs.
func Deterministic() Option {
	return func(h *Harness) {
		h.keyFor = SeededKeys
		h.names = testutil.NewSequentialNames("account")
		h.contractName = testutil.NewSequentialNames("contract")
		h.genesisSeed = "genesis"
	}
}

// New creates a harness on a fresh chain.
func New(ctx context.Context, opts ...Option) (*Harness, error) {
	h := &Harness{
		logger:       slog.New(slog.DiscardHandler),
		names:        testutil.RandomNames{},
		contractName: testutil.RandomNames{},
		nonces:       testutil.NewNonceSequence(),
		keyFor:       RandomKeys,
		keyring:      newKeyring(),
		storePath:    store.MemoryPath,
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.registry == nil {
		h.registry = contract.NewRegistry()
		if err := token.Register(h.registry); err != nil {
			return nil, fmt.Errorf("new harness: %w", err)
		}
	}

	genesis, err := h.genesisKey()
	if err != nil {
		return nil, fmt.Errorf("new harness: %w", err)
	}
	h.keyring.add(ir.SystemAccount, genesis)

	if h.abis == nil {
		h.abis, err = compiler.NewCache(0)
		if err != nil {
			return nil, fmt.Errorf("new harness: %w", err)
		}
		h.ownsABIs = true
	}

	s, err := store.Open(h.storePath)
	if err != nil {
		h.closeABIs()
		return nil, fmt.Errorf("new harness: %w", err)
	}
	h.store = s

	copts := []chain.Option{
		chain.WithLogger(h.logger),
		chain.WithRegistry(h.registry),
		chain.WithABICache(h.abis),
	}
	copts = append(copts, h.chainOpts...)

	c, err := chain.New(ctx, s, genesis.Public(), copts...)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("new harness: %w", err)
	}
	h.chain = c
	return h, nil
}

func (h *Harness) genesisKey() (*keys.PrivateKey, error) {
	if h.genesisSeed != "" {
		return keys.FromSeed(h.genesisSeed), nil
	}
	return keys.Generate()
}

// Close releases the chain and its store.
func (h *Harness) Close() error {
	if h.chain != nil {
		h.chain.Close()
	}
	h.closeABIs()
	return h.store.Close()
}

func (h *Harness) closeABIs() {
	if h.ownsABIs {
		h.abis.Close()
		h.ownsABIs = false
	}
}

// Chain returns the underlying chain.
func (h *Harness) Chain() *chain.Chain { return h.chain }

// Store returns the chain's store.
func (h *Harness) Store() *store.Store { return h.store }

// Account is a test account whose key the harness holds.
type Account struct {
	Name ir.Name
	h    *Harness
}

func (a *Account) String() string { return a.Name.String() }

// Active returns the account's active permission level.
func (a *Account) Active() ir.PermissionLevel { return ir.Active(a.Name) }

// PublicKey returns the account's public key.
func (a *Account) PublicKey() keys.PublicKey {
	k, _ := a.h.keyring.get(a.Name)
	return k.Public()
}

// GetBalance returns the account's balances of symbol on the token
// contract code. It is empty, not nil, when the account holds none.
func (a *Account) GetBalance(ctx context.Context, symbol string, code ir.Name) ([]string, error) {
	return a.h.chain.GetCurrencyBalance(ctx, code, a.Name, symbol)
}

// Account returns a handle for an account the harness created.
func (h *Harness) Account(name string) (*Account, error) {
	n, err := ir.ParseName(name)
	if err != nil {
		return nil, err
	}
	if _, ok := h.keyring.get(n); !ok {
		return nil, fmt.Errorf("account %s was not created by this harness", name)
	}
	return &Account{Name: n, h: h}, nil
}

// CreateAccount creates name, owned by a key from the harness key source.
func (h *Harness) CreateAccount(ctx context.Context, name string) (*Account, error) {
	accounts, err := h.createAccounts(ctx, []string{name})
	if err != nil {
		return nil, err
	}
	return accounts[0], nil
}

// CreateRandomAccounts creates n accounts with generated names in one
// transaction.
func (h *Harness) CreateRandomAccounts(ctx context.Context, n int) ([]*Account, error) {
	if n <= 0 {
		return nil, errors.New("create accounts: n must be positive")
	}
	names := make([]string, n)
	for i := range names {
		names[i] = h.names.Generate()
	}
	return h.createAccounts(ctx, names)
}

func (h *Harness) createAccounts(ctx context.Context, names []string) ([]*Account, error) {
	actions := make([]ir.Action, 0, len(names))
	pending := make(map[ir.Name]*keys.PrivateKey, len(names))
	accounts := make([]*Account, 0, len(names))

	for _, name := range names {
		n, err := ir.ParseName(name)
		if err != nil {
			return nil, fmt.Errorf("create account: %w", err)
		}
		key, err := h.keyFor(name)
		if err != nil {
			return nil, fmt.Errorf("create account %s: %w", name, err)
		}
		act, err := h.systemAction(chain.ActNewAccount, ir.IRObject{
			"creator": ir.IRString(ir.SystemAccount.String()),
			"name":    ir.IRString(name),
			"key":     ir.IRString(key.Public().String()),
		})
		if err != nil {
			return nil, err
		}
		act.Authorization = []ir.PermissionLevel{ir.Active(ir.SystemAccount)}

		actions = append(actions, act)
		pending[n] = key
		accounts = append(accounts, &Account{Name: n, h: h})
	}

	if _, err := h.Push(ctx, actions...); err != nil {
		return nil, fmt.Errorf("create accounts %v: %w", names, err)
	}
	for n, key := range pending {
		h.keyring.add(n, key)
	}
	h.logger.Debug("accounts created", "names", names)
	return accounts, nil
}

// systemAction packs an eosio action.
func (h *Harness) systemAction(name ir.Name, args ir.IRObject) (ir.Action, error) {
	return packAction(chain.SystemABI, ir.SystemAccount, name, args)
}

// Push signs the actions with the keys of every declared actor and pushes
// them as one transaction.
func (h *Harness) Push(ctx context.Context, actions ...ir.Action) (ir.TransactionReceipt, error) {
	stx, err := h.Sign(actions...)
	if err != nil {
		return ir.TransactionReceipt{}, err
	}
	return h.chain.PushTransaction(ctx, stx)
}

// Sign builds a transaction with the next nonce and signs it with the key
// of every distinct actor. Actors the harness holds no key for are left
// unsigned.
func (h *Harness) Sign(actions ...ir.Action) (ir.SignedTransaction, error) {
	tx := ir.Transaction{Nonce: h.nonces.Next(), Actions: actions}
	digest, err := ir.SigningDigest(tx)
	if err != nil {
		return ir.SignedTransaction{}, err
	}

	var actors []ir.Name
	for _, a := range actions {
		for _, level := range a.Authorization {
			if !slices.Contains(actors, level.Actor) {
				actors = append(actors, level.Actor)
			}
		}
	}

	stx := ir.SignedTransaction{Transaction: tx}
	for _, actor := range actors {
		key, ok := h.keyring.get(actor)
		if !ok {
			continue
		}
		sig, err := key.Sign(digest)
		if err != nil {
			return ir.SignedTransaction{}, fmt.Errorf("sign for %s: %w", actor, err)
		}
		stx.Signatures = append(stx.Signatures, sig)
	}
	return stx, nil
}

// GetCurrencyStats returns the stat row of symbol on the token contract
// code, keyed by symbol code.
func (h *Harness) GetCurrencyStats(ctx context.Context, code ir.Name, symbol string) (map[string]ir.CurrencyStats, error) {
	return h.chain.GetCurrencyStats(ctx, code, symbol)
}
