package token

import (
	"context"

	"github.com/roach88/mytoken/internal/contract"
	"github.com/roach88/mytoken/internal/ir"
)

// BasicToken returns eosio.token extended with spender allowances.
func BasicToken() contract.Dispatcher {
	return Token().With(contract.Dispatcher{
		ActApprove:      contract.Action(approve),
		ActTransferFrom: contract.Action(transferFrom),
	})
}

func allowedTable(h contract.Host, owner ir.Name) *contract.Table[allowance] {
	return contract.NewTable(h, h.Receiver(), owner, tableAllowed, allowanceKey)
}

// findAllowance returns owner's allowance row for spender in sym's token.
func findAllowance(ctx context.Context, tbl *contract.Table[allowance], spender ir.Name, sym ir.Symbol) (*allowance, error) {
	rows, err := tbl.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.Spender == spender && row.Quantity.Symbol.Code() == sym.Code() {
			return row, nil
		}
	}
	return nil, nil
}

// approve sets the amount spender may move out of owner's balance. A zero
// quantity revokes the allowance.
func approve(ctx context.Context, h contract.Host, args approveArgs) error {
	if err := h.RequireAuth(args.Owner); err != nil {
		return err
	}
	if err := contract.Check(args.Owner != args.Spender, "cannot approve self"); err != nil {
		return err
	}
	if err := requireAccount(ctx, h, args.Spender, "spender account does not exist"); err != nil {
		return err
	}

	q := args.Quantity
	if err := contract.Check(q.IsValid(), "invalid quantity"); err != nil {
		return err
	}
	if err := contract.Check(q.Amount >= 0, "must approve non-negative quantity"); err != nil {
		return err
	}
	st, err := statsTable(h, q.Symbol.Code()).Get(ctx, uint64(q.Symbol.Code()), "symbol does not exist")
	if err != nil {
		return err
	}
	if err := contract.Check(q.Symbol == st.Supply.Symbol, "symbol precision mismatch"); err != nil {
		return err
	}

	tbl := allowedTable(h, args.Owner)
	existing, err := findAllowance(ctx, tbl, args.Spender, q.Symbol)
	if err != nil {
		return err
	}

	switch {
	case existing == nil && q.Amount == 0:
		return nil
	case existing == nil:
		key, err := tbl.AvailablePrimaryKey(ctx)
		if err != nil {
			return err
		}
		return tbl.Emplace(ctx, args.Owner, &allowance{Key: key, Spender: args.Spender, Quantity: q})
	case q.Amount == 0:
		return tbl.Erase(ctx, existing)
	default:
		existing.Quantity = q
		return tbl.Modify(ctx, args.Owner, existing)
	}
}

// transferFrom moves tokens out of from's balance on spender's authority,
// consuming the allowance.
func transferFrom(ctx context.Context, h contract.Host, args transferFromArgs) error {
	if err := contract.Check(args.From != args.To, "cannot transfer to self"); err != nil {
		return err
	}
	if err := h.RequireAuth(args.Spender); err != nil {
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

	tbl := allowedTable(h, args.From)
	allowed, err := findAllowance(ctx, tbl, args.Spender, args.Quantity.Symbol)
	if err != nil {
		return err
	}
	if err := contract.Check(allowed != nil, "spender not allowed"); err != nil {
		return err
	}
	if err := contract.Check(allowed.Quantity.Amount >= args.Quantity.Amount, "allowance exceeded"); err != nil {
		return err
	}

	if allowed.Quantity, err = sub(allowed.Quantity, args.Quantity); err != nil {
		return err
	}
	if allowed.Quantity.Amount == 0 {
		err = tbl.Erase(ctx, allowed)
	} else {
		err = tbl.Modify(ctx, contract.SamePayer, allowed)
	}
	if err != nil {
		return err
	}

	if err := subBalance(ctx, h, args.From, args.Quantity); err != nil {
		return err
	}
	return addBalance(ctx, h, args.To, args.Quantity, args.Spender)
}
