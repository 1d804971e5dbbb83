// Package ir provides the chain primitives shared by every other package:
// names, symbols, assets, ABI documents, actions, transactions and traces,
// plus the IR value family and canonical JSON used for hashing.
//
// ir imports nothing internal. Key constraints:
//   - no float types: asset amounts are int64 in the smallest unit
//   - all JSON tags use snake_case
//   - identities are content-addressed (sha256 over canonical JSON with a
//     domain prefix), never derived from wall-clock time
package ir
