package models

// SubtaskDiagnostic is the per-subtask part of a FinalAnswer.
type SubtaskDiagnostic struct {
	SubtaskID   string        `json:"subtask_id"`
	Description string        `json:"description"`
	Status      SubtaskStatus `json:"status"`
	Attempts    int           `json:"attempts"`
	// Routing is nil when routing failed.
	Routing *RoutingDecision `json:"routing,omitempty"`
	// Error is the routing or execution error, if any.
	Error    string              `json:"error,omitempty"`
	Findings []ValidationFinding `json:"findings,omitempty"`
	// Blocked is set when a BLOCKING finding replaced the agent answer.
	Blocked bool `json:"blocked,omitempty"`
}

// FinalAnswer is what the pipeline returns to the transport.
type FinalAnswer struct {
	RequestID   string              `json:"request_id"`
	Text        string              `json:"text"`
	Intent      IntentTag           `json:"intent"`
	Complexity  ComplexityTier      `json:"complexity"`
	Diagnostics []SubtaskDiagnostic `json:"diagnostics"`
	// ClassificationDegraded is set when the classifier fell back to unknown after a model failure.
	ClassificationDegraded bool `json:"classification_degraded,omitempty"`
	// DecompositionFallback is set when a model proposal was rejected and the single-subtask plan used.
	DecompositionFallback bool `json:"decomposition_fallback,omitempty"`
	// Partial is set when at least one subtask failed.
	Partial bool `json:"partial,omitempty"`
}

// Findings flattens every subtask's findings in diagnostic order.
func (a FinalAnswer) Findings() []ValidationFinding {
	var out []ValidationFinding
	for _, d := range a.Diagnostics {
		out = append(out, d.Findings...)
	}
	return out
}

// Diagnostic returns the diagnostic for a subtask id.
func (a FinalAnswer) Diagnostic(subtaskID string) (SubtaskDiagnostic, bool) {
	for _, d := range a.Diagnostics {
		if d.SubtaskID == subtaskID {
			return d, true
		}
	}
	return SubtaskDiagnostic{}, false
}
