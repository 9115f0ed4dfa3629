package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitdone-app/gitdone-client/internal/models"
)

func goal(id, description string) models.Goal {
	return models.Goal{ID: id, Description: description, Status: models.StatusActive}
}

func TestReplaceAllKeepsOrderAndDropsDuplicates(t *testing.T) {
	s := NewGoalStore()
	s.ReplaceAll([]models.Goal{goal("3", "c"), goal("1", "a"), goal("3", "dupe"), goal("2", "b")})

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"3", "1", "2"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "c", all[0].Description)
}

func TestUpsertReplacesInPlace(t *testing.T) {
	s := NewGoalStore()
	s.ReplaceAll([]models.Goal{goal("1", "a"), goal("2", "b")})

	s.Upsert(goal("1", "updated"))
	require.Equal(t, 2, s.Len())

	got, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, "updated", got.Description)

	all := s.All()
	assert.Equal(t, "1", all[0].ID, "upsert must not reorder")
}

func TestUpsertAppendsNew(t *testing.T) {
	s := NewGoalStore()
	s.Upsert(goal("1", "a"))
	s.Upsert(goal("2", "b"))

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "2", all[1].ID)
}

func TestRemove(t *testing.T) {
	s := NewGoalStore()
	s.ReplaceAll([]models.Goal{goal("1", "a"), goal("2", "b"), goal("3", "c")})

	s.Remove("2")
	require.Equal(t, 2, s.Len())
	_, ok := s.Get("2")
	assert.False(t, ok)

	// Index stays consistent after the shift.
	got, ok := s.Get("3")
	require.True(t, ok)
	assert.Equal(t, "c", got.Description)

	s.Remove("missing") // no-op
	assert.Equal(t, 2, s.Len())
}

func TestAllReturnsCopy(t *testing.T) {
	s := NewGoalStore()
	s.ReplaceAll([]models.Goal{goal("1", "a")})

	all := s.All()
	all[0].Description = "mutated"

	got, _ := s.Get("1")
	assert.Equal(t, "a", got.Description)
}
