// Package reconcile keeps the latest authoritative score post of each game
// next to the engine's provisional scores so the two can be compared.
package reconcile

import (
	"maps"
	"sync"
)

// Comparison is a diagnostic view of one game. Diff is actual minus predicted
// over the union of both key sets.
type Comparison struct {
	GameID    string         `json:"game_id"`
	Predicted map[string]int `json:"predicted"`
	Actual    map[string]int `json:"actual"`
	Diff      map[string]int `json:"differences"`
}

type Store struct {
	mu        sync.RWMutex
	predicted map[string]map[string]int
	actual    map[string]map[string]int
}

func NewStore() *Store {
	return &Store{
		predicted: make(map[string]map[string]int),
		actual:    make(map[string]map[string]int),
	}
}

// SetPredicted replaces the provisional scores of a game.
func (s *Store) SetPredicted(gameID string, scores map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.predicted[gameID] = maps.Clone(scores)
}

// UpdateAuthoritative replaces the whole authoritative snapshot of a game.
// Entities missing from scores are dropped, never merged.
func (s *Store) UpdateAuthoritative(gameID string, scores map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actual[gameID] = maps.Clone(scores)
}

func (s *Store) Compare(gameID string) Comparison {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Comparison{
		GameID:    gameID,
		Predicted: maps.Clone(s.predicted[gameID]),
		Actual:    maps.Clone(s.actual[gameID]),
		Diff:      make(map[string]int),
	}
	if c.Predicted == nil {
		c.Predicted = map[string]int{}
	}
	if c.Actual == nil {
		c.Actual = map[string]int{}
	}

	for k, v := range c.Predicted {
		c.Diff[k] = c.Actual[k] - v
	}
	for k, v := range c.Actual {
		if _, ok := c.Predicted[k]; !ok {
			c.Diff[k] = v
		}
	}

	return c
}

// Forget drops the provisional side of a game, used when its session is
// re-initialized. The last authoritative post is kept.
func (s *Store) Forget(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.predicted, gameID)
}

func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.predicted = make(map[string]map[string]int)
	s.actual = make(map[string]map[string]int)
}
