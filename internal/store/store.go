// Package store holds the client's in-memory goal collection, the single
// source of truth for rendering. It performs no network calls.
package store

import (
	"sync"

	"github.com/gitdone-app/gitdone-client/internal/models"
)

// GoalStore is an ordered collection of goals keyed by id. Insertion
// order is preserved; the collection never contains two records with the
// same id. All methods are safe for concurrent use.
type GoalStore struct {
	mu    sync.RWMutex
	goals []models.Goal
	index map[string]int
}

// NewGoalStore creates an empty store.
func NewGoalStore() *GoalStore {
	return &GoalStore{index: make(map[string]int)}
}

// ReplaceAll swaps the entire collection for the given goals, keeping
// their order. Later duplicates of an id are dropped.
func (s *GoalStore) ReplaceAll(goals []models.Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.goals = s.goals[:0]
	s.index = make(map[string]int, len(goals))
	for _, g := range goals {
		if _, exists := s.index[g.ID]; exists {
			continue
		}
		s.index[g.ID] = len(s.goals)
		s.goals = append(s.goals, g)
	}
}

// Upsert replaces the goal with the same id in place, or appends it.
func (s *GoalStore) Upsert(goal models.Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[goal.ID]; ok {
		s.goals[i] = goal
		return
	}
	s.index[goal.ID] = len(s.goals)
	s.goals = append(s.goals, goal)
}

// Remove deletes the goal with the given id if present.
func (s *GoalStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return
	}
	s.goals = append(s.goals[:i], s.goals[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.goals); j++ {
		s.index[s.goals[j].ID] = j
	}
}

// Get returns a copy of the goal with the given id.
func (s *GoalStore) Get(id string) (models.Goal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return models.Goal{}, false
	}
	return s.goals[i], true
}

// All returns a copy of the collection in stable order.
func (s *GoalStore) All() []models.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Goal, len(s.goals))
	copy(out, s.goals)
	return out
}

// Len returns the number of goals held.
func (s *GoalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.goals)
}
