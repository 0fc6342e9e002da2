// Package core assembles the record store: one backend, one repository
// per entity kind, relation queries, reports and transactional actions.
//
//	db, err := core.Open("school.db", core.Deps{Clock: collab.SystemClock{}})
//	if err != nil { ... }
//	defer db.Close()
//	db.Classes.Add(ctx, &class)
//	db.Actions.BulkAttendance(ctx, class.ID, day, model.AttendancePresent, "")
package core

import (
	"context"

	"github.com/roach88/recordstore/internal/action"
	"github.com/roach88/recordstore/internal/collab"
	"github.com/roach88/recordstore/internal/query"
	"github.com/roach88/recordstore/internal/repo"
	"github.com/roach88/recordstore/internal/store"
)

// Deps are the collaborators injected at construction time. Nil fields
// fall back to the system clock, bcrypt at default cost and UUIDv7 ids.
type Deps struct {
	Clock  collab.Clock
	Hasher collab.PasswordHasher
	IDs    collab.IDGenerator
}

// Store is an open record store. Repository fields (Users, Classes, ...)
// are promoted from the embedded repo.Set.
//
// A Store is single-writer: do not share it across goroutines that
// write concurrently.
type Store struct {
	*repo.Set

	Queries *query.Queries
	Actions *action.Actions
	Reports *Reports

	backend *store.Store
}

// Open opens (creating if needed) the store file at path.
func Open(path string, deps Deps, opts ...store.Option) (*Store, error) {
	backend, err := store.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	return New(backend, deps), nil
}

// New wires a Store around an already-open backend.
func New(backend *store.Store, deps Deps) *Store {
	repos := repo.NewSet(backend, repo.Deps{Clock: deps.Clock, Hasher: deps.Hasher, IDs: deps.IDs})
	q := query.New(backend)
	return &Store{
		Set:     repos,
		Queries: q,
		Actions: action.New(backend, repos, q),
		Reports: &Reports{q: q},
		backend: backend,
	}
}

// Transaction runs fn atomically. Repository and query calls made through
// this Store inside fn join the transaction. Transactions do not nest.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.backend.Transaction(ctx, fn)
}

// Path returns the file the store was opened on.
func (s *Store) Path() string {
	return s.backend.Path()
}

// Backend exposes the underlying store for tooling that needs raw access.
func (s *Store) Backend() *store.Store {
	return s.backend
}

// Close releases the file handle.
func (s *Store) Close() error {
	return s.backend.Close()
}
