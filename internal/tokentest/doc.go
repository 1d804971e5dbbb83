// Package tokentest is the behaviour suite for the mytoken contract. It
// deploys the compiled contract through the harness before every test case and
// checks the token's stats and balances after create and issue.
//
// Run it with:
//
//	go test ./internal/tokentest
package tokentest
