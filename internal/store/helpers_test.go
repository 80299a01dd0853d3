package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/liturgia/internal/program"
	"github.com/roach88/liturgia/internal/testutil"
)

// createTestStore opens a fresh file-backed store with sequential ids
// (id-0001, id-0002, ...).
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.SequentialIDs("id")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestLiturgy inserts liturgy "lit-1".
func createTestLiturgy(t *testing.T, s *Store) program.Liturgy {
	t.Helper()
	l, err := s.CreateLiturgy(context.Background(), program.Liturgy{ID: "lit-1", Title: "Sunday service", Date: "2026-10-18"})
	if err != nil {
		t.Fatalf("CreateLiturgy() failed: %v", err)
	}
	return l
}

func stepRow(id, title string, order int) program.Row {
	return program.Row{
		ID:        id,
		LiturgyID: "lit-1",
		Title:     title,
		Type:      program.TypeOther,
		Order:     order,
		Content:   []byte("{}"),
	}
}
