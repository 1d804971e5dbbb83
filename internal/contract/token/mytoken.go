package token

import (
	"context"

	"github.com/roach88/mytoken/internal/contract"
	"github.com/roach88/mytoken/internal/ir"
)

// MyToken returns eosio.token with issue forwarding to any recipient.
func MyToken() contract.Dispatcher {
	return Token().With(contract.Dispatcher{ActIssue: contract.Action(issueAndForward)})
}

// MyTokenTransledger returns BasicToken with issue forwarding.
func MyTokenTransledger() contract.Dispatcher {
	return BasicToken().With(contract.Dispatcher{ActIssue: contract.Action(issueAndForward)})
}

// issueAndForward issues quantity to the token's issuer and, when to is
// someone else, sends an inline transfer from the issuer to to. The inline
// action carries issuer@active and therefore needs the contract's
// eosio.code permission.
func issueAndForward(ctx context.Context, h contract.Host, args issueArgs) error {
	code := args.Quantity.Symbol.Code()
	st, exists, err := statsTable(h, code).Find(ctx, uint64(code))
	if err != nil {
		return err
	}
	if err := contract.Check(exists, "token with symbol does not exist, create token before issue"); err != nil {
		return err
	}

	if err := issue(ctx, h, issueArgs{To: st.Issuer, Quantity: args.Quantity, Memo: args.Memo}); err != nil {
		return err
	}

	if args.To == st.Issuer {
		return nil
	}
	h.Logger().Debug("forwarding issued tokens",
		"issuer", st.Issuer.String(),
		"to", args.To.String(),
		"quantity", args.Quantity.String())
	return h.SendInline(ctx, h.Receiver(), ActTransfer,
		[]ir.PermissionLevel{ir.Active(st.Issuer)},
		transferData(st.Issuer, args.To, args.Quantity, args.Memo))
}
