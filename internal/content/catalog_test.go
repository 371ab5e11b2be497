package content

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeContent(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListAvailableExcludesPlayed(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "beerpong.json", `{"title":"Beer Pong","type":"duel","player_count":2}`)
	writeContent(t, dir, "flipcup.json", `{"title":"Flip Cup","type":"team","player_count":4}`)
	writeContent(t, dir, "quiz.json", `{"title":"Quiz","type":"all"}`)
	writeContent(t, dir, "notes.txt", "not content")

	c := NewCatalog(dir, zap.NewNop())
	ids, err := c.ListAvailable([]string{"flipcup"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != "beerpong" || ids[1] != "quiz" {
		t.Errorf("ids = %v, want [beerpong quiz]", ids)
	}
}

func TestMalformedFileSkipped(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "good.json", `{"title":"Good"}`)
	writeContent(t, dir, "broken.json", `{not json`)

	c := NewCatalog(dir, zap.NewNop())
	ids, err := c.ListAvailable(nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 || ids[0] != "good" {
		t.Errorf("ids = %v, want [good]", ids)
	}
}

func TestGetReadsItem(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, "beerpong.json", `{"title":"Beer Pong","type":"duel","player_count":2}`)

	c := NewCatalog(dir, zap.NewNop())
	item, err := c.Get("beerpong")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item.ID != "beerpong" || item.Title != "Beer Pong" || item.PlayerCount != 2 {
		t.Errorf("item = %+v", item)
	}
	if _, err := c.Get("missing"); err == nil {
		t.Error("missing item should error")
	}
}

func TestMissingDirectoryErrors(t *testing.T) {
	c := NewCatalog("/nonexistent/content", zap.NewNop())
	if _, err := c.ListAvailable(nil); err == nil {
		t.Error("missing directory should error")
	}
}
