// Package graph provides the dependency graph over one decomposition's subtasks.
package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ShayCichocki/matchday/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found between subtasks.
var ErrCycleDetected = errors.New("circular dependency detected")

// DependencyGraph is a directed graph of subtask dependencies.
// Subtasks are nodes; edges point from a subtask to the subtasks it depends on.
// Iteration order always follows decomposition order so results are deterministic.
type DependencyGraph struct {
	mu sync.RWMutex
	// order is the decomposition order of subtask IDs.
	order []string
	// nodes maps subtask ID to the subtask itself.
	nodes map[string]models.Subtask
	// edges maps subtask ID to IDs of subtasks it depends on.
	edges map[string][]string
	// dependents maps subtask ID to IDs of subtasks that depend on it, in decomposition order.
	dependents map[string][]string
}

// New creates a new empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:      make(map[string]models.Subtask),
		edges:      make(map[string][]string),
		dependents: make(map[string][]string),
	}
}

// Build constructs the graph from subtasks in decomposition order.
// Returns an error on duplicate IDs, dependencies on unknown subtasks, or cycles.
func (g *DependencyGraph) Build(subtasks []models.Subtask) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// First pass: register all subtasks as nodes.
	for _, st := range subtasks {
		if st.ID == "" {
			return errors.New("subtask has empty id")
		}
		if _, dup := g.nodes[st.ID]; dup {
			return fmt.Errorf("duplicate subtask id %s", st.ID)
		}
		g.order = append(g.order, st.ID)
		g.nodes[st.ID] = st
		g.edges[st.ID] = nil
	}

	// Second pass: build edges from DependsOn.
	for _, st := range subtasks {
		for _, depID := range st.DependsOn {
			if _, exists := g.nodes[depID]; !exists {
				return fmt.Errorf("subtask %s depends on unknown subtask %s", st.ID, depID)
			}
			g.edges[st.ID] = append(g.edges[st.ID], depID)
		}
	}
	for _, id := range g.order {
		for _, depID := range g.edges[id] {
			g.dependents[depID] = append(g.dependents[depID], id)
		}
	}

	if g.hasCycleLocked() {
		return ErrCycleDetected
	}
	return nil
}

// HasCycle returns true if the graph contains a circular dependency.
// Uses depth-first search with colouring to detect back edges.
func (g *DependencyGraph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasCycleLocked()
}

func (g *DependencyGraph) hasCycleLocked() bool {
	// 0 = unvisited, 1 = in progress, 2 = done.
	colors := make(map[string]int, len(g.nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = 1
		for _, depID := range g.edges[id] {
			switch colors[depID] {
			case 1:
				return true
			case 0:
				if visit(depID) {
					return true
				}
			}
		}
		colors[id] = 2
		return false
	}

	for _, id := range g.order {
		if colors[id] == 0 && visit(id) {
			return true
		}
	}
	return false
}

// TopologicalSort returns subtask IDs so that every dependency precedes its dependents.
// Ties are broken by decomposition order.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.hasCycleLocked() {
		return nil, ErrCycleDetected
	}

	visited := make(map[string]bool, len(g.nodes))
	result := make([]string, 0, len(g.nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, depID := range g.edges[id] {
			visit(depID)
		}
		result = append(result, id)
	}

	for _, id := range g.order {
		visit(id)
	}
	return result, nil
}

// IDs returns subtask IDs in decomposition order.
func (g *DependencyGraph) IDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.order...)
}

// Subtask returns the subtask for a given ID.
func (g *DependencyGraph) Subtask(id string) (models.Subtask, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	st, ok := g.nodes[id]
	return st, ok
}

// Size returns the number of subtasks in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Dependencies returns the IDs of subtasks the given subtask depends on.
func (g *DependencyGraph) Dependencies(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.edges[id]...)
}

// Dependents returns the IDs of subtasks that directly depend on the given subtask.
func (g *DependencyGraph) Dependents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.dependents[id]...)
}

// TransitiveDependents returns every subtask reachable through dependents of id,
// in decomposition order. The subtask itself is not included.
func (g *DependencyGraph) TransitiveDependents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[string]bool)
	stack := append([]string(nil), g.dependents[id]...)
	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[next] {
			continue
		}
		seen[next] = true
		stack = append(stack, g.dependents[next]...)
	}

	var out []string
	for _, oid := range g.order {
		if seen[oid] {
			out = append(out, oid)
		}
	}
	return out
}

// Leaves returns subtasks nothing depends on, in decomposition order.
func (g *DependencyGraph) Leaves() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var leaves []string
	for _, id := range g.order {
		if len(g.dependents[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}
