package token

import (
	"context"

	"github.com/roach88/mytoken/internal/contract"
	"github.com/roach88/mytoken/internal/ir"
)

// Action names.
var (
	ActCreate       = ir.MustName("create")
	ActIssue        = ir.MustName("issue")
	ActRetire       = ir.MustName("retire")
	ActTransfer     = ir.MustName("transfer")
	ActOpen         = ir.MustName("open")
	ActClose        = ir.MustName("close")
	ActApprove      = ir.MustName("approve")
	ActTransferFrom = ir.MustName("transferfrom")
)

// Token returns the standard eosio.token dispatcher.
func Token() contract.Dispatcher {
	return contract.Dispatcher{
		ActCreate:   contract.Action(create),
		ActIssue:    contract.Action(issue),
		ActRetire:   contract.Action(retire),
		ActTransfer: contract.Action(transfer),
		ActOpen:     contract.Action(open),
		ActClose:    contract.Action(closeBalance),
	}
}

func statsTable(h contract.Host, code ir.SymbolCode) *contract.Table[currencyStats] {
	return contract.NewTable(h, h.Receiver(), code.AsName(), tableStat, statsKey)
}

func accountsTable(h contract.Host, owner ir.Name) *contract.Table[account] {
	return contract.NewTable(h, h.Receiver(), owner, tableAccounts, accountKey)
}

func create(ctx context.Context, h contract.Host, args createArgs) error {
	if err := h.RequireAuth(h.Receiver()); err != nil {
		return err
	}

	sym := args.MaximumSupply.Symbol
	if err := contract.Check(sym.IsValid(), "invalid symbol name"); err != nil {
		return err
	}
	if err := contract.Check(args.MaximumSupply.IsValid(), "invalid supply"); err != nil {
		return err
	}
	if err := contract.Check(args.MaximumSupply.Amount > 0, "max-supply must be positive"); err != nil {
		return err
	}

	stats := statsTable(h, sym.Code())
	_, exists, err := stats.Find(ctx, uint64(sym.Code()))
	if err != nil {
		return err
	}
	if err := contract.Check(!exists, "token with symbol already exists"); err != nil {
		return err
	}

	return stats.Emplace(ctx, h.Receiver(), &currencyStats{
		Supply:    ir.Asset{Symbol: sym},
		MaxSupply: args.MaximumSupply,
		Issuer:    args.Issuer,
	})
}

func issue(ctx context.Context, h contract.Host, args issueArgs) error {
	sym := args.Quantity.Symbol
	if err := contract.Check(sym.IsValid(), "invalid symbol name"); err != nil {
		return err
	}
	if err := checkMemo(args.Memo); err != nil {
		return err
	}

	stats := statsTable(h, sym.Code())
	st, exists, err := stats.Find(ctx, uint64(sym.Code()))
	if err != nil {
		return err
	}
	if err := contract.Check(exists, "token with symbol does not exist, create token before issue"); err != nil {
		return err
	}
	if err := contract.Check(args.To == st.Issuer, "tokens can only be issued to issuer account"); err != nil {
		return err
	}
	if err := h.RequireAuth(st.Issuer); err != nil {
		return err
	}
	if err := checkQuantity(args.Quantity, st.Supply.Symbol, "must issue positive quantity"); err != nil {
		return err
	}
	if err := contract.Check(args.Quantity.Amount <= st.MaxSupply.Amount-st.Supply.Amount, "quantity exceeds available supply"); err != nil {
		return err
	}

	if st.Supply, err = add(st.Supply, args.Quantity); err != nil {
		return err
	}
	if err := stats.Modify(ctx, contract.SamePayer, st); err != nil {
		return err
	}

	return addBalance(ctx, h, st.Issuer, args.Quantity, st.Issuer)
}

func retire(ctx context.Context, h contract.Host, args retireArgs) error {
	sym := args.Quantity.Symbol
	if err := contract.Check(sym.IsValid(), "invalid symbol name"); err != nil {
		return err
	}
	if err := checkMemo(args.Memo); err != nil {
		return err
	}

	stats := statsTable(h, sym.Code())
	st, exists, err := stats.Find(ctx, uint64(sym.Code()))
	if err != nil {
		return err
	}
	if err := contract.Check(exists, "token with symbol does not exist"); err != nil {
		return err
	}
	if err := h.RequireAuth(st.Issuer); err != nil {
		return err
	}
	if err := checkQuantity(args.Quantity, st.Supply.Symbol, "must retire positive quantity"); err != nil {
		return err
	}

	if st.Supply, err = sub(st.Supply, args.Quantity); err != nil {
		return err
	}
	if err := stats.Modify(ctx, contract.SamePayer, st); err != nil {
		return err
	}

	return subBalance(ctx, h, st.Issuer, args.Quantity)
}

func transfer(ctx context.Context, h contract.Host, args transferArgs) error {
	if err := contract.Check(args.From != args.To, "cannot transfer to self"); err != nil {
		return err
	}
	if err := h.RequireAuth(args.From); err != nil {
		return err
	}
	if err := requireAccount(ctx, h, args.To, "to account does not exist"); err != nil {
		return err
	}

	st, err := getStats(ctx, h, args.Quantity.Symbol.Code())
	if err != nil {
		return err
	}

	if err := h.RequireRecipient(ctx, args.From); err != nil {
		return err
	}
	if err := h.RequireRecipient(ctx, args.To); err != nil {
		return err
	}

	if err := checkQuantity(args.Quantity, st.Supply.Symbol, "must transfer positive quantity"); err != nil {
		return err
	}
	if err := checkMemo(args.Memo); err != nil {
		return err
	}

	payer := args.From
	if h.HasAuth(args.To) {
		payer = args.To
	}

	if err := subBalance(ctx, h, args.From, args.Quantity); err != nil {
		return err
	}
	return addBalance(ctx, h, args.To, args.Quantity, payer)
}

func open(ctx context.Context, h contract.Host, args openArgs) error {
	if err := h.RequireAuth(args.RAMPayer); err != nil {
		return err
	}
	if err := requireAccount(ctx, h, args.Owner, "owner account does not exist"); err != nil {
		return err
	}

	code := args.Symbol.Code()
	st, err := statsTable(h, code).Get(ctx, uint64(code), "symbol does not exist")
	if err != nil {
		return err
	}
	if err := contract.Check(st.Supply.Symbol == args.Symbol, "symbol precision mismatch"); err != nil {
		return err
	}

	accts := accountsTable(h, args.Owner)
	_, exists, err := accts.Find(ctx, uint64(code))
	if err != nil || exists {
		return err
	}
	return accts.Emplace(ctx, args.RAMPayer, &account{Balance: ir.Asset{Symbol: args.Symbol}})
}

func closeBalance(ctx context.Context, h contract.Host, args closeArgs) error {
	if err := h.RequireAuth(args.Owner); err != nil {
		return err
	}

	accts := accountsTable(h, args.Owner)
	row, exists, err := accts.Find(ctx, uint64(args.Symbol.Code()))
	if err != nil {
		return err
	}
	if err := contract.Check(exists, "Balance row already deleted or never existed. Action won't have any effect."); err != nil {
		return err
	}
	if err := contract.Check(row.Balance.Amount == 0, "Cannot close because the balance is not zero."); err != nil {
		return err
	}
	return accts.Erase(ctx, row)
}

func subBalance(ctx context.Context, h contract.Host, owner ir.Name, value ir.Asset) error {
	accts := accountsTable(h, owner)
	from, err := accts.Get(ctx, uint64(value.Symbol.Code()), "no balance object found")
	if err != nil {
		return err
	}
	if err := contract.Check(from.Balance.Amount >= value.Amount, "overdrawn balance"); err != nil {
		return err
	}
	if from.Balance, err = sub(from.Balance, value); err != nil {
		return err
	}
	return accts.Modify(ctx, owner, from)
}

func addBalance(ctx context.Context, h contract.Host, owner ir.Name, value ir.Asset, ramPayer ir.Name) error {
	accts := accountsTable(h, owner)
	to, exists, err := accts.Find(ctx, uint64(value.Symbol.Code()))
	if err != nil {
		return err
	}
	if !exists {
		return accts.Emplace(ctx, ramPayer, &account{Balance: value})
	}
	if to.Balance, err = add(to.Balance, value); err != nil {
		return err
	}
	return accts.Modify(ctx, contract.SamePayer, to)
}

func getStats(ctx context.Context, h contract.Host, code ir.SymbolCode) (*currencyStats, error) {
	return statsTable(h, code).Get(ctx, uint64(code), "unable to find key")
}

func checkQuantity(q ir.Asset, sym ir.Symbol, positiveMsg string) error {
	if err := contract.Check(q.IsValid(), "invalid quantity"); err != nil {
		return err
	}
	if err := contract.Check(q.Amount > 0, positiveMsg); err != nil {
		return err
	}
	return contract.Check(q.Symbol == sym, "symbol precision mismatch")
}

func checkMemo(memo string) error {
	return contract.Check(len(memo) <= MaxMemoBytes, "memo has more than 256 bytes")
}

func requireAccount(ctx context.Context, h contract.Host, name ir.Name, msg string) error {
	ok, err := h.IsAccount(ctx, name)
	if err != nil {
		return err
	}
	return contract.Check(ok, msg)
}

func add(a, b ir.Asset) (ir.Asset, error) {
	sum, err := a.Add(b)
	if err != nil {
		return ir.Asset{}, &contract.AssertError{Message: err.Error()}
	}
	return sum, nil
}

func sub(a, b ir.Asset) (ir.Asset, error) {
	diff, err := a.Sub(b)
	if err != nil {
		return ir.Asset{}, &contract.AssertError{Message: err.Error()}
	}
	return diff, nil
}
