// Package scorestore holds the human-assigned categorical evaluations for
// evaluation records. It is the one piece of shared mutable state in the
// viewer: a keyed map of "{item}-{model}-{provider}-{with|without}" to
// category, persisted immediately to a session-scoped JSON file on every
// mutation and rebuilt from export snapshots on import.
package scorestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/visionrag/ragview/internal/models"
)

// Store is a session-scoped evaluation store. All operations are
// synchronous; every mutation persists before notifying subscribers.
// A zero path makes the store memory-only, which tests rely on.
type Store struct {
	path string

	mu      sync.RWMutex
	evals   map[string]models.Category
	subs    map[int]func()
	nextSub int

	// savedAt tracks the modification time of the last write we made,
	// letting the poll watcher distinguish our own writes from another
	// process touching the session file.
	savedAt time.Time
}

// Open creates a store backed by the session file at path. A missing,
// unreadable, or corrupt file is treated as an empty store; availability
// wins over surfacing errors for a low-stakes session cache.
func Open(path string) *Store {
	s := &Store{
		path:  path,
		evals: make(map[string]models.Category),
		subs:  make(map[int]func()),
	}
	s.loadLocked()
	return s
}

// loadLocked reads the session file into the map. Caller must not hold mu
// during Open; reload callers must hold mu.
func (s *Store) loadLocked() {
	s.evals = make(map[string]models.Category)
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		// Corrupt session state: start empty, never propagate.
		return
	}
	for key, val := range raw {
		c := models.Category(val)
		if c.Valid() {
			s.evals[key] = c
		}
	}
}

// Set records category for one side of a grouped pair. If the stored value
// already equals category, the entry is removed instead (reselect toggles
// off). Returns true when the entry was removed.
func (s *Store) Set(g *models.GroupedUnit, mode models.ContextMode, category models.Category) (removed bool, err error) {
	if !category.Valid() {
		return false, fmt.Errorf("scorestore: unknown category %q", category)
	}
	if !mode.Valid() {
		return false, fmt.Errorf("scorestore: invalid context mode %q", mode)
	}

	s.mu.Lock()
	key := g.EvaluationKey(mode)
	if existing, ok := s.evals[key]; ok && existing == category {
		delete(s.evals, key)
		removed = true
	} else {
		s.evals[key] = category
	}
	err = s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return removed, err
}

// Get returns the stored category for one side of a pair.
func (s *Store) Get(g *models.GroupedUnit, mode models.ContextMode) (models.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.evals[g.EvaluationKey(mode)]
	return c, ok
}

// Evaluation satisfies metrics.RatingSource.
func (s *Store) Evaluation(g *models.GroupedUnit, mode models.ContextMode) (models.Category, bool) {
	return s.Get(g, mode)
}

// ClearAll removes every evaluation.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	s.evals = make(map[string]models.Category)
	err := s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return err
}

// ReplaceAll swaps in a full evaluation set, used when importing a snapshot.
// Invalid categories are dropped silently. The swap only commits when the
// session file persists; on error the previous set stays in place.
func (s *Store) ReplaceAll(evals map[string]models.Category) error {
	next := make(map[string]models.Category, len(evals))
	for key, c := range evals {
		if c.Valid() {
			next[key] = c
		}
	}

	s.mu.Lock()
	prev := s.evals
	s.evals = next
	if err := s.persistLocked(); err != nil {
		s.evals = prev
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// Snapshot returns a copy of the current evaluation map.
func (s *Store) Snapshot() map[string]models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Category, len(s.evals))
	for key, c := range s.evals {
		out[key] = c
	}
	return out
}

// Len returns the number of stored evaluations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.evals)
}

// Subscribe registers fn to run after every mutation. Notifications are
// synchronous and run on the mutating goroutine. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// persistLocked writes the map to the session file. Caller holds mu.
func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	raw := make(map[string]string, len(s.evals))
	for key, c := range s.evals {
		raw[key] = string(c)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("scorestore: marshaling session state: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("scorestore: creating session directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("scorestore: writing session file: %w", err)
	}
	if info, statErr := os.Stat(s.path); statErr == nil {
		s.savedAt = info.ModTime()
	}
	return nil
}

// Watch polls the session file at interval and reloads the store when
// another process modified it, notifying subscribers. This is the
// best-effort fallback for cross-process consistency; in-process callers
// get synchronous notifications and never need it. Watch blocks until ctx
// is canceled.
func (s *Store) Watch(ctx context.Context, interval time.Duration) error {
	if s.path == "" {
		<-ctx.Done()
		return ctx.Err()
	}
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.reloadIfChanged() {
				s.notify()
			}
		}
	}
}

// reloadIfChanged reloads the session file when its mtime moved past our
// last write. Returns true when a reload happened.
func (s *Store) reloadIfChanged() bool {
	info, err := os.Stat(s.path)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !info.ModTime().After(s.savedAt) {
		return false
	}
	s.loadLocked()
	s.savedAt = info.ModTime()
	return true
}
