// Package harness drives contracts on an in-process chain. It creates test
// accounts, deploys a compiled artifact with its ABI, invokes actions with
// positional arguments and reads token balances and stats back.
//
// # Programmatic use
//
//	h, err := harness.New(ctx)
//	accounts, err := h.CreateRandomAccounts(ctx, 2)
//	tok, err := h.Deploy(ctx, "compiled/mytoken.wasm",
//	    "contracts/mytoken/mytoken-eosio.token.abi", harness.DeployOptions{Inline: true})
//	_, err = tok.Invoke(ctx, "create", []any{accounts[0], "1000000000.0000 SYS"})
//	_, err = tok.Invoke(ctx, "issue", []any{accounts[1], "100.0000 SYS", "memo"},
//	    harness.From(accounts[0]))
//	balance, err := accounts[1].GetBalance(ctx, "SYS", tok.Name)
//
// # Scenarios
//
// The same steps can be written as a YAML scenario and executed with Run.
// Scenario runs are deterministic: account keys derive from account names
// and the contract account is named from a fixed sequence, so the action
// traces of a run can be compared against a golden file.
//
//	name: issue-to-other
//	description: issuing to another account forwards the tokens inline
//	accounts: [alice, bob]
//	contract:
//	  artifact: ../../compiled/mytoken.wasm
//	  abi: ../../contracts/mytoken/mytoken-eosio.token.abi
//	  inline: true
//	steps:
//	  - action: create
//	    args: [alice, "1000000000.0000 SYS"]
//	  - action: issue
//	    from: alice
//	    args: [bob, "100.0000 SYS", "memo"]
//	assertions:
//	  - type: balance
//	    account: bob
//	    symbol: SYS
//	    expect: ["100.0000 SYS"]
package harness
