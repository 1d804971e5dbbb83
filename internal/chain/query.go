package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/store"
)

// Standard token table names read by the currency queries.
var (
	tableStat     = ir.MustName("stat")
	tableAccounts = ir.MustName("accounts")
)

// GetAccount returns the account record for name.
func (c *Chain) GetAccount(ctx context.Context, name ir.Name) (ir.Account, error) {
	return c.store.GetAccount(ctx, name)
}

// GetABI returns the ABI deployed to account, or nil if none is.
func (c *Chain) GetABI(ctx context.Context, account ir.Name) (*ir.ABI, error) {
	if account == ir.SystemAccount {
		return SystemABI, nil
	}
	raw, err := c.store.GetABI(ctx, account)
	if err != nil || raw == nil {
		return nil, err
	}
	return c.abis.Compile(account.String()+".abi", raw)
}

// GetTableRows returns every row of code's table in scope, in primary key
// order.
func (c *Chain) GetTableRows(ctx context.Context, code, scope, table ir.Name) ([]ir.TableRow, error) {
	return c.store.ScanRows(ctx, store.TableRef{Code: code, Scope: scope, Table: table})
}

// GetCurrencyStats returns the stat row of symbol on code, keyed by symbol
// code. The map is empty when the token was never created.
func (c *Chain) GetCurrencyStats(ctx context.Context, code ir.Name, symbol string) (map[string]ir.CurrencyStats, error) {
	sym, err := ir.ParseSymbolCode(symbol)
	if err != nil {
		return nil, err
	}

	out := make(map[string]ir.CurrencyStats)
	ref := store.TableRef{Code: code, Scope: sym.AsName(), Table: tableStat}
	row, ok, err := c.store.FindRow(ctx, ref, uint64(sym))
	if err != nil || !ok {
		return out, err
	}

	var stats ir.CurrencyStats
	if err := json.Unmarshal(row.Value, &stats); err != nil {
		return nil, fmt.Errorf("decode %s row: %w", ref, err)
	}
	out[sym.String()] = stats
	return out, nil
}

// GetCurrencyBalance returns account's balances on code. A non-empty
// symbol restricts the result to that token. The slice is empty, not nil,
// when there are no balances.
func (c *Chain) GetCurrencyBalance(ctx context.Context, code, account ir.Name, symbol string) ([]string, error) {
	var filter ir.SymbolCode
	if symbol != "" {
		sym, err := ir.ParseSymbolCode(symbol)
		if err != nil {
			return nil, err
		}
		filter = sym
	}

	rows, err := c.GetTableRows(ctx, code, account, tableAccounts)
	if err != nil {
		return nil, err
	}

	out := []string{}
	for _, row := range rows {
		if filter != 0 && row.PrimaryKey != uint64(filter) {
			continue
		}
		var bal struct {
			Balance string `json:"balance"`
		}
		if err := json.Unmarshal(row.Value, &bal); err != nil {
			return nil, fmt.Errorf("decode balance of %s: %w", account, err)
		}
		out = append(out, bal.Balance)
	}
	return out, nil
}
