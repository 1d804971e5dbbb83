package chain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mytoken/internal/codec"
	"github.com/roach88/mytoken/internal/contract"
	"github.com/roach88/mytoken/internal/contract/token"
	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/keys"
	"github.com/roach88/mytoken/internal/store"
)

const tokenABIPath = "../../contracts/mytoken/mytoken-eosio.token.abi"

// gadgetABI describes the gadget contract used to exercise the executor.
const gadgetABI = `{
	"version": "eosio::abi/1.1",
	"structs": [
		{"name": "ping", "fields": [{"name": "to", "type": "name"}]},
		{"name": "notify", "fields": [{"name": "who", "type": "name"}]},
		{"name": "fail", "fields": [{"name": "msg", "type": "string"}]},
		{"name": "write", "fields": [{"name": "code", "type": "name"}]}
	],
	"actions": [
		{"name": "ping", "type": "ping"},
		{"name": "notify", "type": "notify"},
		{"name": "fail", "type": "fail"},
		{"name": "write", "type": "write"}
	]
}`

var tableNotes = ir.MustName("notes")

type pingArgs struct {
	To ir.Name `abi:"to"`
}

type notifyArgs struct {
	Who ir.Name `abi:"who"`
}

type failArgs struct {
	Msg string `abi:"msg"`
}

type writeArgs struct {
	Code ir.Name `abi:"code"`
}

// gadget is a contract whose actions each trigger one chain feature.
func gadget() contract.Dispatcher {
	return contract.Dispatcher{
		ir.MustName("ping"): contract.Action(func(ctx context.Context, h contract.Host, args pingArgs) error {
			auth := []ir.PermissionLevel{ir.Active(h.Receiver())}
			return h.SendInline(ctx, args.To, ir.MustName("ping"), auth, ir.IRObject{"to": ir.IRString(args.To.String())})
		}),
		ir.MustName("notify"): contract.Action(func(ctx context.Context, h contract.Host, args notifyArgs) error {
			return h.RequireRecipient(ctx, args.Who)
		}),
		ir.MustName("fail"): contract.Action(func(ctx context.Context, h contract.Host, args failArgs) error {
			err := h.InsertRow(ctx, ir.TableRow{
				Code:       h.Receiver(),
				Scope:      h.Receiver(),
				Table:      tableNotes,
				PrimaryKey: 1,
				Payer:      h.Receiver(),
				Value:      []byte(`{}`),
			})
			if err != nil {
				return err
			}
			return contract.Check(false, args.Msg)
		}),
		ir.MustName("write"): contract.Action(func(ctx context.Context, h contract.Host, args writeArgs) error {
			return h.InsertRow(ctx, ir.TableRow{
				Code:       args.Code,
				Scope:      args.Code,
				Table:      tableNotes,
				PrimaryKey: 1,
				Payer:      h.Receiver(),
				Value:      []byte(`{}`),
			})
		}),
	}
}

func newTestRegistry(t *testing.T) *contract.Registry {
	t.Helper()
	r := contract.NewRegistry()
	require.NoError(t, token.Register(r))
	require.NoError(t, r.Register("gadget", func() contract.Code { return gadget() }))
	return r
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	chain    *Chain
	store    *store.Store
	reg      *prometheus.Registry
	keys     map[ir.Name]*keys.PrivateKey
	nonce    int64
	tokenABI string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	s, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return newFixtureOn(t, s, opts...)
}

func newFixtureOn(t *testing.T, s *store.Store, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	genesis := keys.FromSeed("genesis")

	base := []Option{WithRegistry(newTestRegistry(t)), WithMetrics(NewMetrics(reg))}
	c, err := New(ctx, s, genesis.Public(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	abi, err := os.ReadFile(tokenABIPath)
	require.NoError(t, err)

	return &fixture{
		t:        t,
		ctx:      ctx,
		chain:    c,
		store:    s,
		reg:      reg,
		keys:     map[ir.Name]*keys.PrivateKey{ir.SystemAccount: genesis},
		tokenABI: string(abi),
	}
}

// action packs args with the ABI deployed to account.
func (f *fixture) action(account ir.Name, name string, actor ir.Name, args ir.IRObject) ir.Action {
	f.t.Helper()
	abi, err := f.chain.GetABI(f.ctx, account)
	require.NoError(f.t, err)
	require.NotNil(f.t, abi, "no ABI on %s", account)
	data, err := codec.PackAction(abi, name, args)
	require.NoError(f.t, err)
	return ir.Action{
		Account:       account,
		Name:          ir.MustName(name),
		Authorization: []ir.PermissionLevel{ir.Active(actor)},
		Data:          data,
	}
}

// sign builds a transaction with a fresh nonce signed by every actor whose
// key the fixture holds.
func (f *fixture) sign(actions ...ir.Action) ir.SignedTransaction {
	f.t.Helper()
	f.nonce++
	tx := ir.Transaction{Nonce: f.nonce, Actions: actions}
	return f.signTx(tx)
}

func (f *fixture) signTx(tx ir.Transaction) ir.SignedTransaction {
	f.t.Helper()
	digest, err := ir.SigningDigest(tx)
	require.NoError(f.t, err)

	seen := make(map[ir.Name]bool)
	var sigs []string
	for _, a := range tx.Actions {
		for _, level := range a.Authorization {
			key, ok := f.keys[level.Actor]
			if !ok || seen[level.Actor] {
				continue
			}
			seen[level.Actor] = true
			sig, err := key.Sign(digest)
			require.NoError(f.t, err)
			sigs = append(sigs, sig)
		}
	}
	return ir.SignedTransaction{Transaction: tx, Signatures: sigs}
}

func (f *fixture) push(actions ...ir.Action) (ir.TransactionReceipt, error) {
	return f.chain.PushTransaction(f.ctx, f.sign(actions...))
}

func (f *fixture) mustPush(actions ...ir.Action) ir.TransactionReceipt {
	f.t.Helper()
	r, err := f.push(actions...)
	require.NoError(f.t, err)
	return r
}

func (f *fixture) createAccount(name string) ir.Name {
	f.t.Helper()
	n := ir.MustName(name)
	key := keys.FromSeed(name)
	f.mustPush(f.action(ir.SystemAccount, "newaccount", ir.SystemAccount, ir.IRObject{
		"creator": ir.IRString("eosio"),
		"name":    ir.IRString(name),
		"key":     ir.IRString(key.Public().String()),
	}))
	f.keys[n] = key
	return n
}

func (f *fixture) deploy(name, codeID, abi string, inline bool) ir.Name {
	f.t.Helper()
	n := f.createAccount(name)
	sum := sha256.Sum256([]byte(codeID))

	actions := []ir.Action{
		f.action(ir.SystemAccount, "setcode", n, ir.IRObject{
			"account":   ir.IRString(name),
			"code_id":   ir.IRString(codeID),
			"code_hash": ir.IRString(hex.EncodeToString(sum[:])),
		}),
		f.action(ir.SystemAccount, "setabi", n, ir.IRObject{
			"account": ir.IRString(name),
			"abi":     ir.IRString(abi),
		}),
	}
	if inline {
		actions = append(actions, f.action(ir.SystemAccount, "updateauth", n, ir.IRObject{
			"account":    ir.IRString(name),
			"permission": ir.IRString("active"),
			"eosio_code": ir.IRBool(true),
		}))
	}
	f.mustPush(actions...)
	return n
}

func (f *fixture) deployToken(name string, inline bool) ir.Name {
	return f.deploy(name, token.CodeMyToken, f.tokenABI, inline)
}
