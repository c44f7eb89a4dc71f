package session

import (
	"context"
	"os"
	"testing"
	"time"
)

// forEachBackend runs the same store test against both backends.
func forEachBackend(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Helper()

	t.Run("file", func(t *testing.T) {
		store, err := NewFileStore(Options{Dir: t.TempDir()})
		if err != nil {
			t.Fatalf("Failed to create file store: %v", err)
		}
		defer store.Close()
		fn(t, store)
	})

	t.Run("badger", func(t *testing.T) {
		store, err := NewBadgerStore(Options{Dir: t.TempDir()})
		if err != nil {
			t.Fatalf("Failed to create badger store: %v", err)
		}
		defer store.Close()
		fn(t, store)
	})
}

func TestHistoryUnknownSession(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Store) {
		history, err := store.History(context.Background(), "never-seen")
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("Expected empty history, got %d messages", len(history))
		}
	})
}

func TestAppendAndHistory(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		err := store.Append(ctx, "s1",
			Message{Role: RoleUser, Content: "check my code"},
			Message{Role: RoleAssistant, Content: "looks good"},
		)
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := store.Append(ctx, "s1", Message{Role: RoleUser, Content: "thanks"}); err != nil {
			t.Fatalf("Second append failed: %v", err)
		}

		history, err := store.History(ctx, "s1")
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(history) != 3 {
			t.Fatalf("Expected 3 messages, got %d", len(history))
		}
		if history[0].Role != RoleUser || history[0].Content != "check my code" {
			t.Errorf("First message = %s %q", history[0].Role, history[0].Content)
		}
		if history[1].Role != RoleAssistant {
			t.Errorf("Second message role = %s, want %s", history[1].Role, RoleAssistant)
		}
		if history[2].Content != "thanks" {
			t.Errorf("Third message = %q, want %q", history[2].Content, "thanks")
		}
		if history[0].CreatedAt.IsZero() {
			t.Error("CreatedAt was not stamped on append")
		}
	})
}

func TestSessionsAreIsolated(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		if err := store.Append(ctx, "a", Message{Role: RoleUser, Content: "for a"}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := store.Append(ctx, "b", Message{Role: RoleUser, Content: "for b"}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}

		history, err := store.History(ctx, "a")
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(history) != 1 || history[0].Content != "for a" {
			t.Errorf("Session a history = %v, want its own single message", history)
		}
	})
}

func TestClear(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		if err := store.Append(ctx, "s1", Message{Role: RoleUser, Content: "hello"}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := store.Clear(ctx, "s1"); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}

		history, err := store.History(ctx, "s1")
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("Expected cleared history, got %d messages", len(history))
		}

		// Clearing an unknown session is not an error.
		if err := store.Clear(ctx, "never-seen"); err != nil {
			t.Errorf("Clear of unknown session failed: %v", err)
		}
	})
}

func TestList(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		for _, id := range []string{"beta", "alpha"} {
			if err := store.Append(ctx, id, Message{Role: RoleUser, Content: "hi"}); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
		}

		ids, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(ids) != 2 {
			t.Fatalf("Expected 2 sessions, got %d", len(ids))
		}
		if ids[0] != "alpha" || ids[1] != "beta" {
			t.Errorf("List = %v, want [alpha beta]", ids)
		}
	})
}

func TestFileStoreEviction(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewFileStore(Options{Dir: dir})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	for _, id := range []string{"old", "mid", "new"} {
		if err := store.Append(ctx, id, Message{Role: RoleUser, Content: "hi"}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	store.Close()

	// Age the files so eviction order is deterministic.
	ages := map[string]time.Duration{"old": 3 * time.Hour, "mid": 2 * time.Hour, "new": time.Hour}
	for id, age := range ages {
		ts := time.Now().Add(-age)
		if err := os.Chtimes(store.sessionPath(id), ts, ts); err != nil {
			t.Fatalf("Failed to age session file: %v", err)
		}
	}

	// Reopening with a cap evicts the oldest.
	store, err = NewFileStore(Options{Dir: dir, MaxSessions: 2})
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer store.Close()

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Expected 2 sessions after eviction, got %d: %v", len(ids), ids)
	}
	for _, id := range ids {
		if id == "old" {
			t.Error("Oldest session survived eviction")
		}
	}
}

func TestFileStoreTTL(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewFileStore(Options{Dir: dir})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Append(ctx, "stale", Message{Role: RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	store.Close()

	ts := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(store.sessionPath("stale"), ts, ts); err != nil {
		t.Fatalf("Failed to age session file: %v", err)
	}

	store, err = NewFileStore(Options{Dir: dir, TTL: 24 * time.Hour})
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer store.Close()

	history, err := store.History(ctx, "stale")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("Expected expired session to be dropped, got %d messages", len(history))
	}
}

func TestNewSessionID(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	if a == "" {
		t.Fatal("NewSessionID returned empty id")
	}
	if a == b {
		t.Errorf("NewSessionID returned duplicate id %q", a)
	}
}

func TestOpenBackends(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		store, err := Open(BackendFile, Options{Dir: t.TempDir()})
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer store.Close()
		if _, ok := store.(*FileStore); !ok {
			t.Errorf("Open(file) = %T, want *FileStore", store)
		}
	})

	t.Run("badger", func(t *testing.T) {
		store, err := Open(BackendBadger, Options{Dir: t.TempDir()})
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer store.Close()
		if _, ok := store.(*BadgerStore); !ok {
			t.Errorf("Open(badger) = %T, want *BadgerStore", store)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := Open("bogus", Options{Dir: t.TempDir()}); err == nil {
			t.Error("Open(bogus) did not fail")
		}
	})
}
