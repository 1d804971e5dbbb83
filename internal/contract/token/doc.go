// Package token implements the eosio.token contract family natively.
//
// Three code ids are registered:
//
//	eosio.token          the standard token: create, issue, retire,
//	                     transfer, open, close
//	mytoken              eosio.token whose issue may name any recipient:
//	                     tokens are issued to the issuer and then moved to
//	                     the recipient by an inline transfer
//	mytoken-transledger  mytoken on top of the transledger BasicToken, which
//	                     adds approve and transferfrom allowances
//
// State lives in three tables: stat (scope: symbol code) holds one
// currency_stats row per token, accounts (scope: owner) holds one balance
// row per symbol, and allowed (scope: owner, BasicToken only) holds one
// row per approved spender and symbol.
package token
