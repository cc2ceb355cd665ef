// Package capability provides the static agent proficiency table used for routing.
package capability

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/matchday/pkg/models"
)

// Entry is one agent's proficiency for one capability.
type Entry struct {
	AgentID    string
	Capability models.Capability
	Score      float64
}

// Matrix maps agents to per-capability scores in [0,1].
// A Matrix is read-only after construction and safe for concurrent use.
type Matrix struct {
	scores map[string]map[models.Capability]float64
	agents []string
}

// NewMatrix builds a matrix from entries. Scores outside [0,1] or empty agent
// IDs are rejected. A later entry for the same pair overrides an earlier one.
func NewMatrix(entries []Entry) (*Matrix, error) {
	m := &Matrix{scores: make(map[string]map[models.Capability]float64)}
	for _, e := range entries {
		if e.AgentID == "" {
			return nil, fmt.Errorf("matrix entry for %q has empty agent id", e.Capability)
		}
		if e.Capability == "" {
			return nil, fmt.Errorf("matrix entry for agent %s has empty capability", e.AgentID)
		}
		if e.Score < 0 || e.Score > 1 {
			return nil, fmt.Errorf("score %.3f for %s/%s is outside [0,1]", e.Score, e.AgentID, e.Capability)
		}
		row, ok := m.scores[e.AgentID]
		if !ok {
			row = make(map[models.Capability]float64)
			m.scores[e.AgentID] = row
			m.agents = append(m.agents, e.AgentID)
		}
		row[e.Capability] = e.Score
	}
	sort.Strings(m.agents)
	return m, nil
}

// Score returns the proficiency of agent for c. Missing entries score 0.
func (m *Matrix) Score(agentID string, c models.Capability) float64 {
	if m == nil {
		return 0
	}
	return m.scores[agentID][c]
}

// Agents returns the agents with at least one entry, in lexical order.
func (m *Matrix) Agents() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.agents...)
}

// Capabilities returns the capabilities scored for an agent, in lexical order.
func (m *Matrix) Capabilities(agentID string) []models.Capability {
	if m == nil {
		return nil
	}
	caps := make([]models.Capability, 0, len(m.scores[agentID]))
	for c := range m.scores[agentID] {
		caps = append(caps, c)
	}
	models.SortCapabilities(caps)
	return caps
}

// Entries returns every entry ordered by agent then capability.
func (m *Matrix) Entries() []Entry {
	var out []Entry
	for _, agentID := range m.Agents() {
		for _, c := range m.Capabilities(agentID) {
			out = append(out, Entry{AgentID: agentID, Capability: c, Score: m.scores[agentID][c]})
		}
	}
	return out
}

// matrixFile is the on-disk YAML layout:
//
//	agents:
//	  status_agent:
//	    self_status_read: 1.0
type matrixFile struct {
	Agents map[string]map[string]float64 `yaml:"agents"`
}

// Parse decodes a YAML matrix document.
func Parse(data []byte) (*Matrix, error) {
	var f matrixFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse capability matrix: %w", err)
	}
	if len(f.Agents) == 0 {
		return nil, fmt.Errorf("capability matrix has no agents")
	}

	var entries []Entry
	for agentID, row := range f.Agents {
		for c, score := range row {
			entries = append(entries, Entry{AgentID: agentID, Capability: models.Capability(c), Score: score})
		}
	}
	return NewMatrix(entries)
}

// Load reads a YAML matrix file. A missing file yields DefaultMatrix.
func Load(path string) (*Matrix, error) {
	if path == "" {
		return DefaultMatrix(), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultMatrix(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read capability matrix: %w", err)
	}
	return Parse(data)
}

// Marshal encodes the matrix in the same layout Parse accepts.
func (m *Matrix) Marshal() ([]byte, error) {
	f := matrixFile{Agents: make(map[string]map[string]float64)}
	for _, e := range m.Entries() {
		row, ok := f.Agents[e.AgentID]
		if !ok {
			row = make(map[string]float64)
			f.Agents[e.AgentID] = row
		}
		row[string(e.Capability)] = e.Score
	}
	return yaml.Marshal(f)
}
