package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func newTestStore(t *testing.T, maxEntries int) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "history.json"), maxEntries)
}

func entryAt(name string, at time.Time) Entry {
	return Entry{
		ID:          NewEntryID(),
		ExecutedAt:  at,
		RequestName: name,
		Success:     true,
		StatusCode:  200,
		Duration:    42 * time.Millisecond,
	}
}

func TestAppendOrdersNewestFirst(t *testing.T) {
	store := newTestStore(t, 10)
	base := time.Now()

	if err := store.Append(entryAt("first", base)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(entryAt("second", base.Add(time.Minute))); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(entryAt("backfill", base.Add(-time.Minute))); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries := store.Entries()
	if len(entries) != 3 {
		t.Fatalf("unexpected count: %d", len(entries))
	}
	if entries[0].RequestName != "second" || entries[2].RequestName != "backfill" {
		t.Fatalf("entries not newest first: %+v", entries)
	}
}

func TestAppendEnforcesCap(t *testing.T) {
	store := newTestStore(t, 3)
	base := time.Now()
	for i := 0; i < 5; i++ {
		if err := store.Append(entryAt("req", base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if got := len(store.Entries()); got != 3 {
		t.Fatalf("cap not enforced: %d entries", got)
	}
}

func TestPersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewStore(path, 10)
	entry := entryAt("users", time.Now())
	entry.AssertsPass = 2
	entry.AssertsFail = 1
	entry.BodySnippet = `{"id":1}`
	if err := store.Append(entry); err != nil {
		t.Fatalf("append: %v", err)
	}

	reloaded := NewStore(path, 10)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	entries := reloaded.Entries()
	if len(entries) != 1 {
		t.Fatalf("unexpected count after reload: %d", len(entries))
	}
	got := entries[0]
	if got.RequestName != "users" || got.AssertsPass != 2 || got.AssertsFail != 1 {
		t.Fatalf("entry fields lost: %+v", got)
	}
	if got.BodySnippet != `{"id":1}` {
		t.Fatalf("snippet lost: %q", got.BodySnippet)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	store := newTestStore(t, 10)
	if err := store.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(store.Entries()) != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := NewStore(path, 10)
	if err := store.Load(); err == nil {
		t.Fatalf("expected error for corrupt history")
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t, 10)
	entry := entryAt("users", time.Now())
	if err := store.Append(entry); err != nil {
		t.Fatalf("append: %v", err)
	}

	removed, err := store.Delete(entry.ID)
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
	if removed, _ := store.Delete(entry.ID); removed {
		t.Fatalf("double delete reported removal")
	}
}

func TestByRequest(t *testing.T) {
	store := newTestStore(t, 10)
	base := time.Now()
	for i, name := range []string{"users", "orders", "users"} {
		if err := store.Append(entryAt(name, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	matched := store.ByRequest("users")
	if len(matched) != 2 {
		t.Fatalf("unexpected matches: %+v", matched)
	}
	if matched[0].ExecutedAt.Before(matched[1].ExecutedAt) {
		t.Fatalf("matches not newest first")
	}
	if got := store.ByRequest(""); len(got) != 3 {
		t.Fatalf("empty name should return all, got %d", len(got))
	}
}

func TestSnippet(t *testing.T) {
	if Snippet("  short  ") != "short" {
		t.Fatalf("snippet should trim")
	}
	long := strings.Repeat("x", 2000)
	if got := Snippet(long); len(got) != snippetLimit {
		t.Fatalf("snippet not capped: %d", len(got))
	}
}

func TestSnippetKeepsValidUTF8(t *testing.T) {
	// 3-byte runes so the byte cap lands mid-rune
	long := strings.Repeat("€", 300)
	got := Snippet(long)
	if len(got) > snippetLimit {
		t.Fatalf("snippet not capped: %d", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("snippet split a rune: %q", got[len(got)-4:])
	}
}
