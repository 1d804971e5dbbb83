// Package chain implements a deterministic, in-process EOSIO-style chain.
//
// The chain is a test double, not a node: there is no networking,
// consensus, WASM or resource billing. It keeps enough of the execution
// model to exercise real contract semantics:
//
//   - Accounts with one K1 key; transactions are signed and every declared
//     top-level authorization must be backed by a signature
//   - The eosio system contract: newaccount, setcode, setabi, updateauth
//   - Native contracts looked up by code id in a contract.Registry
//   - require_recipient notifications and inline actions, executed after
//     the sending action in send order, with a nesting limit
//   - A per-transaction action quota
//
// SINGLE WRITER:
// PushTransaction is serialized by a mutex. Each push runs inside one
// store transaction that is committed only if every action, inline action
// and notification succeeded; a failed push leaves no trace in the store
// and does not consume a block number.
//
// DETERMINISM:
// Block numbers come from a logical Clock, transaction IDs are content
// hashes, and execution order is fully determined by the transaction. A
// log replayed onto a fresh chain with the same genesis key reproduces
// every receipt, which Replay verifies via trace digests.
package chain
