// Package testutil provides shared test helpers for building graphs and indexes.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cyberia-to/publish-quartz/internal/index"
	"github.com/cyberia-to/publish-quartz/internal/models"
	"github.com/cyberia-to/publish-quartz/internal/storage"
)

// Index builds an index from alternating path/content pairs.
func Index(t *testing.T, pairs ...string) *index.Index {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatal("testutil.Index: odd number of arguments")
	}
	sources := make([]models.Source, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		sources = append(sources, models.Source{Path: pairs[i], Data: []byte(pairs[i+1])})
	}
	return index.Build(sources, nil)
}

// Graph writes files (path -> content) under a fresh temporary graph root.
func Graph(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// Store creates a temporary directory with a storage provider rooted at it.
func Store(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Names returns the names of docs in order.
func Names(docs []*models.Document) []string {
	if len(docs) == 0 {
		return nil
	}
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Name
	}
	return out
}
