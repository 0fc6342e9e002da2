package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/recordstore/internal/store"
)

// DBPath returns a fresh database path inside the test's temp dir.
func DBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "records.db")
}

// OpenStore opens a store on a fresh file and closes it when the test ends.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(DBPath(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
