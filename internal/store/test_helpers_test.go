package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// insertUser writes a minimal users row and returns its id.
func insertUser(t *testing.T, s *Store, username, email string) int64 {
	t.Helper()
	res, err := s.Exec(context.Background(),
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		username, email, "hash")
	if err != nil {
		t.Fatalf("insert user %q: %v", username, err)
	}
	return res.LastInsertID
}

func countRows(t *testing.T, s *Store, table string) int64 {
	t.Helper()
	rows, err := s.Query(context.Background(), "SELECT COUNT(*) FROM "+table)
	if err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return rows[0][0].(int64)
}
