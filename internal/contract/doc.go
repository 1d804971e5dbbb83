// Package contract defines how native Go contracts run on the chain.
//
// A contract is a Code value registered under a code id. When an account
// whose deployed code id matches is the receiver of an action, the chain
// calls Apply with a Host scoped to that action. Contracts read arguments
// with Decode, persist state through typed Tables, and abort the whole
// transaction by returning an AssertError (usually via Check).
//
// The Host is the only way a contract touches the chain. Writes are
// restricted to the receiver's own tables; everything a contract does
// becomes visible only if the enclosing transaction commits.
package contract
