// Package agent defines the task-executing agents the router chooses between.
package agent

import (
	"context"
	"fmt"
	"sort"

	"github.com/ShayCichocki/matchday/internal/tools"
	"github.com/ShayCichocki/matchday/pkg/models"
)

// Request is everything an agent gets for one subtask.
type Request struct {
	Subtask models.Subtask
	Context models.StandardizedContext
	// Inputs holds the answers of the subtask's dependencies keyed by subtask ID.
	Inputs map[string]string
	// Tools is the only way an agent reaches the tool catalog.
	Tools *tools.Invoker
}

// Response is an agent's answer for one subtask.
type Response struct {
	Answer string
}

// Agent executes subtasks. Implementations must be safe for concurrent use;
// one agent may run several subtasks of the same request at once.
type Agent interface {
	ID() string
	Execute(ctx context.Context, req Request) (Response, error)
}

// Func adapts a function to the Agent interface.
type Func struct {
	id string
	fn func(ctx context.Context, req Request) (Response, error)
}

// NewFunc creates an agent from a function.
func NewFunc(id string, fn func(ctx context.Context, req Request) (Response, error)) *Func {
	return &Func{id: id, fn: fn}
}

// ID returns the agent ID.
func (f *Func) ID() string { return f.id }

// Execute calls the wrapped function.
func (f *Func) Execute(ctx context.Context, req Request) (Response, error) {
	return f.fn(ctx, req)
}

// Registry is the set of agents available to the router. It is built at
// startup and only read afterwards.
type Registry struct {
	agents map[string]Agent
}

// NewRegistry creates a registry holding the given agents.
func NewRegistry(agents ...Agent) (*Registry, error) {
	r := &Registry{agents: make(map[string]Agent)}
	for _, a := range agents {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an agent. IDs must be unique.
func (r *Registry) Register(a Agent) error {
	id := a.ID()
	if id == "" {
		return fmt.Errorf("agent has empty id")
	}
	if _, exists := r.agents[id]; exists {
		return fmt.Errorf("duplicate agent %q", id)
	}
	r.agents[id] = a
	return nil
}

// Get returns the agent with the given ID.
func (r *Registry) Get(id string) (Agent, error) {
	a, ok := r.agents[id]
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", id, models.ErrUnknownAgent)
	}
	return a, nil
}

// IDs returns all agent IDs, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	return len(r.agents)
}
