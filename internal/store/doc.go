// Package store provides the SQLite-backed record store backend.
//
// A Store owns one local file and exposes:
//   - Exec: parameterized mutation returning rows affected and last insert id
//   - Query / QueryOne: parameterized SELECT returning model.Row tuples
//   - Transaction: a scope that commits on success and rolls back on error
//   - Close
//
// # Schema
//
// Open runs an embedded CREATE TABLE IF NOT EXISTS script covering every
// entity table with UNIQUE, NOT NULL, CHECK and FOREIGN KEY constraints.
// Foreign keys are ON DELETE RESTRICT. The schema version is tracked in
// PRAGMA user_version.
//
// # Concurrency
//
// The store is single-writer. The pool holds exactly one connection and
// transactions do not nest. While a transaction is active, every Exec and
// Query issued on the Store runs inside it, which is how repositories and
// actions share one atomic scope without threading a *sql.Tx around.
//
// # Errors
//
// Every failure is an *Error with a Kind. Driver errors are classified:
//   - SQLITE_CONSTRAINT_* -> KindConstraint (constraint name when reported)
//   - I/O, locking, read-only, can't-open, missing table -> KindStorageUnavailable
//   - other SQL errors -> KindSchema
//
// The store never logs.
package store
