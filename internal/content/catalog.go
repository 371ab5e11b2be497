// Package content reads mini-game definitions from a folder of JSON files
// and serves them to the game engine, excluding content already played.
package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Item is one playable mini-game definition. The id is the file name
// without its extension.
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	PlayerCount int    `json:"player_count"`
}

// Catalog lists mini-game content from a directory.
type Catalog struct {
	logger *zap.Logger
	dir    string
}

// NewCatalog creates a catalog over the given directory.
func NewCatalog(dir string, logger *zap.Logger) *Catalog {
	return &Catalog{logger: logger, dir: dir}
}

// ListAvailable returns the ids of all content files not in excludeIDs,
// sorted. Unreadable or malformed files are skipped with a warning so one
// broken file never hides the rest.
func (c *Catalog) ListAvailable(excludeIDs []string) ([]string, error) {
	items, err := c.List()
	if err != nil {
		return nil, err
	}
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []string
	for _, item := range items {
		if !excluded[item.ID] {
			out = append(out, item.ID)
		}
	}
	return out, nil
}

// List reads every content file in the directory.
func (c *Catalog) List() ([]Item, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("read content dir %s: %w", c.dir, err)
	}
	var items []Item
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		item, err := c.read(entry.Name())
		if err != nil {
			c.logger.Warn("skipping unreadable content file",
				zap.String("file", entry.Name()),
				zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// Get loads one content item by id.
func (c *Catalog) Get(id string) (Item, error) {
	return c.read(id + ".json")
}

func (c *Catalog) read(name string) (Item, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, name))
	if err != nil {
		return Item{}, err
	}
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return Item{}, fmt.Errorf("parse %s: %w", name, err)
	}
	item.ID = strings.TrimSuffix(name, ".json")
	return item, nil
}
