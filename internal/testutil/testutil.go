// Package testutil provides shared test helpers for setting up catalog
// backends and caches.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/noxistence/noxistence/internal/cache"
	"github.com/noxistence/noxistence/internal/catalog"
)

// Logger returns a logger that discards all output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// JSONRepo creates a flat-file repository in a temporary directory.
func JSONRepo(t *testing.T) *catalog.JSONFile {
	t.Helper()
	repo, err := catalog.NewJSONFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONFile: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

// SQLiteRepo creates a SQLite repository on a temporary database file.
func SQLiteRepo(t *testing.T) *catalog.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "noxistence-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	repo, err := catalog.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

// Repos returns one repository per backend, keyed by backend name, so
// behavioural tests can run against both.
func Repos(t *testing.T) map[string]catalog.Repository {
	t.Helper()
	return map[string]catalog.Repository{
		"json":   JSONRepo(t),
		"sqlite": SQLiteRepo(t),
	}
}

// TestCache creates a cache in a temporary directory.
func TestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(t.TempDir(), Logger())
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	return c
}
