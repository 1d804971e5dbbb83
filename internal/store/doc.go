// Package store provides SQLite-backed state for the in-process chain.
//
// The store holds:
//   - Accounts: name, key, deployed code id and hash, ABI, inline permission
//   - Contract tables: rows addressed by (code, scope, table, primary key)
//   - Transaction log: every committed transaction with its action traces
//   - Chain meta: genesis key and chain version
//
// # Transactions
//
// All writes go through a Tx obtained from Begin. The chain opens one Tx
// per pushed transaction and commits it only when every action succeeded,
// so a failed transaction leaves no trace in any table. Reads made while a
// push is in flight must use the same Tx: the pool holds a single
// connection.
//
// # Ordering
//
//   - Table scans are ordered by primary key (fixed-width hex, BINARY collation)
//   - The log is ordered by block number; traces by action ordinal
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
