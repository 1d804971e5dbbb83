package token

import (
	"github.com/roach88/mytoken/internal/ir"
)

// Table names.
var (
	tableStat     = ir.MustName("stat")
	tableAccounts = ir.MustName("accounts")
	tableAllowed  = ir.MustName("allowed")
)

// MaxMemoBytes bounds the memo of issue, retire and transfer.
const MaxMemoBytes = 256

type account struct {
	Balance ir.Asset `json:"balance"`
}

func accountKey(a *account) uint64 { return uint64(a.Balance.Symbol.Code()) }

type currencyStats struct {
	Supply    ir.Asset `json:"supply"`
	MaxSupply ir.Asset `json:"max_supply"`
	Issuer    ir.Name  `json:"issuer"`
}

func statsKey(s *currencyStats) uint64 { return uint64(s.Supply.Symbol.Code()) }

type allowance struct {
	Key      uint64   `json:"key"`
	Spender  ir.Name  `json:"spender"`
	Quantity ir.Asset `json:"quantity"`
}

func allowanceKey(a *allowance) uint64 { return a.Key }

type createArgs struct {
	Issuer        ir.Name  `abi:"issuer"`
	MaximumSupply ir.Asset `abi:"maximum_supply"`
}

type issueArgs struct {
	To       ir.Name  `abi:"to"`
	Quantity ir.Asset `abi:"quantity"`
	Memo     string   `abi:"memo"`
}

type retireArgs struct {
	Quantity ir.Asset `abi:"quantity"`
	Memo     string   `abi:"memo"`
}

type transferArgs struct {
	From     ir.Name  `abi:"from"`
	To       ir.Name  `abi:"to"`
	Quantity ir.Asset `abi:"quantity"`
	Memo     string   `abi:"memo"`
}

type openArgs struct {
	Owner    ir.Name   `abi:"owner"`
	Symbol   ir.Symbol `abi:"symbol"`
	RAMPayer ir.Name   `abi:"ram_payer"`
}

type closeArgs struct {
	Owner  ir.Name   `abi:"owner"`
	Symbol ir.Symbol `abi:"symbol"`
}

type approveArgs struct {
	Owner    ir.Name  `abi:"owner"`
	Spender  ir.Name  `abi:"spender"`
	Quantity ir.Asset `abi:"quantity"`
}

type transferFromArgs struct {
	From     ir.Name  `abi:"from"`
	To       ir.Name  `abi:"to"`
	Spender  ir.Name  `abi:"spender"`
	Quantity ir.Asset `abi:"quantity"`
	Memo     string   `abi:"memo"`
}

func transferData(from, to ir.Name, quantity ir.Asset, memo string) ir.IRObject {
	return ir.IRObject{
		"from":     ir.IRString(from.String()),
		"to":       ir.IRString(to.String()),
		"quantity": ir.IRString(quantity.String()),
		"memo":     ir.IRString(memo),
	}
}
