// Package tournament tracks which games were actually played, in order.
package tournament

import (
	"slices"
	"sync"
	"time"

	"github.com/victornm/livescore/internal/domain"
)

type Tracker struct {
	mu       sync.RWMutex
	games    []string
	selected map[string]time.Time
	current  string
	now      func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		selected: make(map[string]time.Time),
		now:      time.Now,
	}
}

// RecordSelected appends game unless it was already selected and returns its
// 1-based position.
func (t *Tracker) RecordSelected(game string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.record(game)
}

func (t *Tracker) record(game string) int {
	if i := slices.Index(t.games, game); i >= 0 {
		return i + 1
	}

	t.games = append(t.games, game)
	t.selected[game] = t.now()

	return len(t.games)
}

// SetCurrent records game if needed and marks it as the one being played.
func (t *Tracker) SetCurrent(game string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos := t.record(game)
	t.current = game

	return pos
}

// Position returns the 1-based position of game, 0 if it was never selected.
func (t *Tracker) Position(game string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return slices.Index(t.games, game) + 1
}

// SelectedAt returns when game was first selected.
func (t *Tracker) SelectedAt(game string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ts, ok := t.selected[game]
	return ts, ok
}

func (t *Tracker) Status() domain.Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p := domain.Progress{
		Games:   slices.Clone(t.games),
		Current: t.current,
		Total:   len(t.games),
	}
	if p.Games == nil {
		p.Games = []string{}
	}
	if t.current != "" {
		p.CurrentPosition = slices.Index(t.games, t.current) + 1
	}

	return p
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.games = nil
	t.selected = make(map[string]time.Time)
	t.current = ""
}
