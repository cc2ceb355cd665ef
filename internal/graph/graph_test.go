package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/matchday/pkg/models"
)

func st(id string, deps ...string) models.Subtask {
	return models.Subtask{ID: id, Description: id, DependsOn: deps}
}

func TestBuild_Simple(t *testing.T) {
	g := New()
	require.NoError(t, g.Build([]models.Subtask{st("a"), st("b"), st("c")}))

	assert.Equal(t, 3, g.Size())
	assert.Equal(t, []string{"a", "b", "c"}, g.IDs())
	assert.Equal(t, []string{"a", "b", "c"}, g.Leaves())
}

func TestBuild_WithDependencies(t *testing.T) {
	g := New()
	require.NoError(t, g.Build([]models.Subtask{
		st("a"),
		st("b", "a"),
		st("c", "a", "b"),
	}))

	assert.Equal(t, []string{"a", "b"}, g.Dependencies("c"))
	assert.Equal(t, []string{"b", "c"}, g.Dependents("a"))
	assert.Equal(t, []string{"c"}, g.Leaves())

	sub, ok := g.Subtask("b")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, sub.DependsOn)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name     string
		subtasks []models.Subtask
		isCycle  bool
	}{
		{"unknown dependency", []models.Subtask{st("a", "ghost")}, false},
		{"duplicate id", []models.Subtask{st("a"), st("a")}, false},
		{"empty id", []models.Subtask{st("")}, false},
		{"self reference", []models.Subtask{st("a", "a")}, true},
		{"two cycle", []models.Subtask{st("a", "b"), st("b", "a")}, true},
		{"three cycle", []models.Subtask{st("a", "c"), st("b", "a"), st("c", "b")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().Build(tt.subtasks)
			require.Error(t, err)
			if tt.isCycle {
				assert.ErrorIs(t, err, ErrCycleDetected)
			} else {
				assert.NotErrorIs(t, err, ErrCycleDetected)
			}
		})
	}
}

func TestTopologicalSort_Deterministic(t *testing.T) {
	subtasks := []models.Subtask{
		st("d", "b", "c"),
		st("b", "a"),
		st("c", "a"),
		st("a"),
	}

	for i := 0; i < 20; i++ {
		g := New()
		require.NoError(t, g.Build(subtasks))
		order, err := g.TopologicalSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d"}, order)
	}
}

func TestTransitiveDependents(t *testing.T) {
	g := New()
	require.NoError(t, g.Build([]models.Subtask{
		st("a"),
		st("b", "a"),
		st("c", "b"),
		st("d"),
		st("e", "c", "d"),
	}))

	assert.Equal(t, []string{"b", "c", "e"}, g.TransitiveDependents("a"))
	assert.Equal(t, []string{"e"}, g.TransitiveDependents("d"))
	assert.Empty(t, g.TransitiveDependents("e"))
}

func TestAccessorsReturnCopies(t *testing.T) {
	g := New()
	require.NoError(t, g.Build([]models.Subtask{st("a"), st("b", "a")}))

	deps := g.Dependencies("b")
	deps[0] = "zzz"
	assert.Equal(t, []string{"a"}, g.Dependencies("b"))

	ids := g.IDs()
	ids[0] = "zzz"
	assert.Equal(t, []string{"a", "b"}, g.IDs())
}
