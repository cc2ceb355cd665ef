// Package tools defines the tool catalog agents draw from and the invoker
// that records every call into the request's capture.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ShayCichocki/matchday/internal/capture"
	"github.com/ShayCichocki/matchday/pkg/models"
)

// Input is a tool's named string arguments.
type Input map[string]string

// Output is what a tool returned. Items holds the enumerated records, if any.
type Output struct {
	Text  string
	Items []map[string]string
}

// Tool is one callable domain operation.
type Tool interface {
	Name() string
	Description() string
	Capabilities() []models.Capability
	Invoke(ctx context.Context, sctx models.StandardizedContext, in Input) (Output, error)
}

// Writes reports whether t changes team state. Retries never repeat a
// successful call to such a tool.
func Writes(t Tool) bool {
	w, ok := t.(interface{ Writes() bool })
	return ok && w.Writes()
}

// Catalog is the set of tools available to agents. It is built once at
// startup and read concurrently afterwards.
type Catalog struct {
	tools map[string]Tool
}

// NewCatalog creates a catalog holding the given tools.
func NewCatalog(tools ...Tool) (*Catalog, error) {
	c := &Catalog{tools: make(map[string]Tool)}
	for _, t := range tools {
		if err := c.Register(t); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a tool. Names must be unique.
func (c *Catalog) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool has empty name")
	}
	if _, exists := c.tools[name]; exists {
		return fmt.Errorf("duplicate tool %q", name)
	}
	c.tools[name] = t
	return nil
}

// Get returns the named tool.
func (c *Catalog) Get(name string) (Tool, error) {
	t, ok := c.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool %q: %w", name, models.ErrUnknownTool)
	}
	return t, nil
}

// Names returns all tool names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForCapabilities returns the tools declaring at least one of caps,
// sorted by name.
func (c *Catalog) ForCapabilities(caps []models.Capability) []Tool {
	want := make(map[models.Capability]bool, len(caps))
	for _, cp := range caps {
		want[cp] = true
	}
	var out []Tool
	for _, name := range c.Names() {
		t := c.tools[name]
		for _, cp := range t.Capabilities() {
			if want[cp] {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// Invoker runs tools on behalf of one subtask and records each call.
// Agents only reach tools through an Invoker, so the capture reflects what
// really ran regardless of what the agent reports.
type Invoker struct {
	catalog   *Catalog
	capture   *capture.Capture
	subtaskID string
	sctx      models.StandardizedContext
	allowed   map[string]bool
}

// NewInvoker binds the catalog to a subtask. Only tools matching caps may be
// invoked; an empty caps set allows every tool.
func NewInvoker(catalog *Catalog, c *capture.Capture, subtaskID string, sctx models.StandardizedContext, caps []models.Capability) *Invoker {
	inv := &Invoker{catalog: catalog, capture: c, subtaskID: subtaskID, sctx: sctx}
	if len(caps) > 0 && catalog != nil {
		inv.allowed = make(map[string]bool)
		for _, t := range catalog.ForCapabilities(caps) {
			inv.allowed[t.Name()] = true
		}
	}
	return inv
}

// SubtaskID returns the subtask the invoker records under.
func (i *Invoker) SubtaskID() string {
	return i.subtaskID
}

// Tools returns the tools this invoker may call.
func (i *Invoker) Tools() []Tool {
	if i == nil || i.catalog == nil {
		return nil
	}
	var out []Tool
	for _, name := range i.catalog.Names() {
		if i.allowed == nil || i.allowed[name] {
			out = append(out, i.catalog.tools[name])
		}
	}
	return out
}

// Invoke runs the named tool and records the call, including failures.
func (i *Invoker) Invoke(ctx context.Context, name string, in Input) (Output, error) {
	if i == nil || i.catalog == nil {
		return Output{}, fmt.Errorf("tool %q: %w", name, models.ErrUnknownTool)
	}
	t, err := i.catalog.Get(name)
	if err == nil && i.allowed != nil && !i.allowed[name] {
		err = fmt.Errorf("tool %q not available to subtask %s: %w", name, i.subtaskID, models.ErrUnknownTool)
	}
	if err != nil {
		i.record(name, false, in, Output{}, err)
		return Output{}, err
	}

	out, err := t.Invoke(ctx, i.sctx, in)
	i.record(name, Writes(t), in, out, err)
	return out, err
}

func (i *Invoker) record(name string, write bool, in Input, out Output, err error) {
	if i.capture == nil {
		return
	}
	i.capture.Record(i.subtaskID, name, capture.Call{
		Input:  FormatInput(in),
		Output: out.Text,
		Items:  len(out.Items),
		Err:    err,
		Write:  write,
	})
}

// FormatInput renders input as sorted key=value pairs.
func FormatInput(in Input) string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+in[k])
	}
	return strings.Join(parts, " ")
}
