package graphhints

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/opspulse/sentinel/internal/model"
)

// Store holds the current GraphHints behind an atomic pointer so readers
// (the Scorer, on the driver's tick goroutine) never observe a
// partially-updated graph while Set runs on another goroutine. Replacement is applied immediately — spec.md §6
// only requires the *next tick* to pick it up, which is naturally satisfied
// since the Scorer re-reads Current() once per tick.
type Store struct {
	current atomic.Pointer[model.GraphHints]
}

// New returns a Store seeded with an empty graph.
func New() *Store {
	s := &Store{}
	s.current.Store(&model.GraphHints{Adjacency: map[string][]string{}})
	return s
}

// Set atomically replaces the current graph.
func (s *Store) Set(h *model.GraphHints) {
	if h.Adjacency == nil {
		h.Adjacency = map[string][]string{}
	}
	s.current.Store(h)
}

// Current returns the graph in effect for the current tick.
func (s *Store) Current() *model.GraphHints {
	return s.current.Load()
}

// LoadFile parses a JSON-encoded GraphHints document from path.
func LoadFile(path string) (*model.GraphHints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graphhints: read %q: %w", path, err)
	}
	var h model.GraphHints
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("graphhints: parse %q: %w", path, err)
	}
	return &h, nil
}

// Watch follows the config package's fsnotify idiom: on every write/create
// event for path, the file is reloaded and swapped into s. A malformed file
// is logged and the previous graph remains active.
func (s *Store) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("graphhints: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			h, err := LoadFile(path)
			if err != nil {
				slog.Error("graphhints: reload failed — keeping previous graph",
					"path", path, "err", err)
				continue
			}
			s.Set(h)
			slog.Info("graphhints: reloaded", "path", path, "entities", len(h.Adjacency))
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("graphhints: watcher error", "err", err)
		}
	}
}
