package dedupe

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStoreTracksSeenURLs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "seen.db")
	store, err := NewSQLiteStore(dbPath, "", 0)
	if err != nil {
		t.Fatalf("failed to init sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	seen, err := store.HasSeen(context.Background(), "https://github.com/a/b")
	if err != nil {
		t.Fatalf("has seen failed: %v", err)
	}
	if seen {
		t.Fatalf("expected unseen url")
	}

	if err := store.MarkSeen(context.Background(), "https://github.com/a/b"); err != nil {
		t.Fatalf("mark seen failed: %v", err)
	}

	seen, err = store.HasSeen(context.Background(), "https://github.com/a/b")
	if err != nil {
		t.Fatalf("has seen failed: %v", err)
	}
	if !seen {
		t.Fatalf("expected seen url")
	}
}

func TestSQLiteStoreHonorsTTL(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "seen.db")
	store, err := NewSQLiteStore(dbPath, "", 5*time.Millisecond)
	if err != nil {
		t.Fatalf("failed to init sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.MarkSeen(context.Background(), "https://github.com/ttl/repo"); err != nil {
		t.Fatalf("mark seen failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	seen, err := store.HasSeen(context.Background(), "https://github.com/ttl/repo")
	if err != nil {
		t.Fatalf("has seen failed: %v", err)
	}
	if seen {
		t.Fatalf("expected url to expire")
	}
}

func TestSQLiteStoreMarkSeenBatch(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "seen.db")
	store, err := NewSQLiteStore(dbPath, "", 0)
	if err != nil {
		t.Fatalf("failed to init sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	urls := []string{
		"https://github.com/a/b",
		"https://github.com/c/d",
		"https://github.com/e/f",
	}
	if err := store.MarkSeenBatch(context.Background(), urls); err != nil {
		t.Fatalf("mark seen batch failed: %v", err)
	}

	for _, url := range urls {
		seen, err := store.HasSeen(context.Background(), url)
		if err != nil {
			t.Fatalf("has seen failed: %v", err)
		}
		if !seen {
			t.Fatalf("expected url %q to be seen", url)
		}
	}
}

func TestSQLiteStoreRejectsInvalidTableName(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "seen.db")
	if _, err := NewSQLiteStore(dbPath, "seen; DROP TABLE x", 0); err == nil {
		t.Fatalf("expected an error for an invalid table name")
	}
}
