package app

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/scrobz/scrobz/internal/scrobble"
	"github.com/scrobz/scrobz/internal/scrobble/cache"
)

func testModel(t *testing.T) Model {
	t.Helper()
	c, err := cache.Open("alice", t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c.SetLogger(logger)

	tracks := []scrobble.Track{
		{Title: "Ceremony", Artist: "New Order", DurationMs: 240000, StartedAt: time.Unix(1700000000, 0)},
		{Title: "Temptation", Artist: "New Order", DurationMs: 300000, StartedAt: time.Unix(1700000100, 0)},
		{Title: "Age of Consent", Artist: "New Order", DurationMs: 312000, StartedAt: time.Unix(1700000200, 0)},
	}
	if rejected, err := c.Add(tracks); err != nil || len(rejected) != 0 {
		t.Fatalf("seed cache: rejected=%v err=%v", rejected, err)
	}
	return New(c, nil, logger)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCursorMovement(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(key("j"))
	next, _ = next.Update(key("j"))
	got := next.(Model)
	if got.selection != 2 {
		t.Errorf("expected selection 2, got %d", got.selection)
	}

	// Does not run past the end
	next, _ = got.Update(key("j"))
	if next.(Model).selection != 2 {
		t.Errorf("selection should stop at the last entry")
	}

	next, _ = next.Update(key("k"))
	if next.(Model).selection != 1 {
		t.Errorf("expected selection 1 after k, got %d", next.(Model).selection)
	}

	next, _ = next.Update(key("g"))
	if next.(Model).selection != 0 {
		t.Errorf("g should jump to the top")
	}
	next, _ = next.Update(key("G"))
	if next.(Model).selection != 2 {
		t.Errorf("G should jump to the bottom")
	}
}

func TestQuit(t *testing.T) {
	m := testModel(t)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestAcknowledgeRemovesEntry(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(key("d"))
	got := next.(Model)
	if len(got.tracks) != 2 {
		t.Fatalf("expected 2 tracks after acknowledging, got %d", len(got.tracks))
	}
	if got.tracks[0].Title != "Temptation" {
		t.Errorf("expected first entry to be removed, got %q", got.tracks[0].Title)
	}
	if got.cache.Len() != 2 {
		t.Errorf("cache should be updated, got %d", got.cache.Len())
	}
}

func TestAcknowledgeLastEntryClampsCursor(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(key("G"))
	next, _ = next.Update(key("d"))
	got := next.(Model)
	if got.selection != 1 {
		t.Errorf("cursor should clamp to the new last entry, got %d", got.selection)
	}
}

func TestViewListsTracks(t *testing.T) {
	m := testModel(t)
	m.width = 80
	m.height = 24

	view := m.View()
	if !strings.Contains(view, "Ceremony") {
		t.Error("view should list pending tracks")
	}
	if !strings.Contains(view, "alice") {
		t.Error("view should name the cache owner")
	}
}

func TestReloadKey(t *testing.T) {
	m := testModel(t)

	// Drop everything behind the model's back, then reload.
	if _, err := m.cache.Remove(m.cache.Tracks()); err != nil {
		t.Fatalf("remove: %v", err)
	}
	next, _ := m.Update(key("r"))
	got := next.(Model)
	if len(got.tracks) != 0 {
		t.Errorf("expected no tracks after reload, got %d", len(got.tracks))
	}
}
