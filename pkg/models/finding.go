package models

import "time"

// ToolInvocationRecord is what a tool actually returned during one subtask,
// independent of what the agent claims.
type ToolInvocationRecord struct {
	SubtaskID     string `json:"subtask_id"`
	ToolName      string `json:"tool_name"`
	InputSummary  string `json:"input_summary"`
	OutputSummary string `json:"output_summary"`
	// ItemCount is the number of enumerated records the tool returned (0 for scalar output).
	ItemCount int `json:"item_count"`
	// Error is set when the tool call failed; failed calls never support a claim.
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	// Write is set for tools that change team state.
	Write bool `json:"write,omitempty"`
}

// Enumerated reports whether the call succeeded and produced list-shaped data.
func (r ToolInvocationRecord) Enumerated() bool {
	return r.Error == "" && r.ItemCount > 0
}

// Committed reports whether the call changed team state.
func (r ToolInvocationRecord) Committed() bool {
	return r.Write && r.Error == ""
}

// Severity grades a validation finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityBlocking Severity = "blocking"
)

// Valid returns true if the severity is a known value.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityBlocking:
		return true
	default:
		return false
	}
}

// ValidationFinding is one consistency problem found in an agent answer.
type ValidationFinding struct {
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	SubtaskID string   `json:"subtask_id"`
}

// HasBlocking reports whether any finding is BLOCKING.
func HasBlocking(findings []ValidationFinding) bool {
	for _, f := range findings {
		if f.Severity == SeverityBlocking {
			return true
		}
	}
	return false
}
