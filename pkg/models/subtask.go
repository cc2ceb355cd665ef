package models

// SubtaskStatus is the execution state of a subtask.
type SubtaskStatus string

const (
	// SubtaskPending is waiting for its dependencies.
	SubtaskPending SubtaskStatus = "pending"
	// SubtaskReady has all dependencies succeeded and is about to be dispatched.
	SubtaskReady SubtaskStatus = "ready"
	// SubtaskRunning is being executed by its routed agent.
	SubtaskRunning SubtaskStatus = "running"
	// SubtaskSucceeded finished with an answer.
	SubtaskSucceeded SubtaskStatus = "succeeded"
	// SubtaskFailed finished without an answer, or was skipped because a dependency failed.
	SubtaskFailed SubtaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s SubtaskStatus) Valid() bool {
	switch s {
	case SubtaskPending, SubtaskReady, SubtaskRunning, SubtaskSucceeded, SubtaskFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true for SUCCEEDED and FAILED.
func (s SubtaskStatus) Terminal() bool {
	return s == SubtaskSucceeded || s == SubtaskFailed
}

// Subtask is one unit of decomposed work.
type Subtask struct {
	// ID is unique within one decomposition.
	ID string `json:"id"`
	// Description tells the agent what to do.
	Description string `json:"description"`
	// RequiredCapabilities is the capability set used for routing. May be empty.
	RequiredCapabilities []Capability `json:"required_capabilities"`
	// DependsOn lists IDs of subtasks that must succeed first.
	DependsOn []string `json:"depends_on,omitempty"`
}

// DependsOnID reports whether id is a direct dependency.
func (s Subtask) DependsOnID(id string) bool {
	for _, dep := range s.DependsOn {
		if dep == id {
			return true
		}
	}
	return false
}

// RoutingDecision records which agent a subtask was dispatched to and why.
type RoutingDecision struct {
	SubtaskID     string  `json:"subtask_id"`
	ChosenAgentID string  `json:"chosen_agent_id"`
	Score         float64 `json:"score"`
	// RunnerUpAgentID is empty when only one agent was available.
	RunnerUpAgentID string  `json:"runner_up_agent_id,omitempty"`
	RunnerUpScore   float64 `json:"runner_up_score,omitempty"`
}

// HasRunnerUp reports whether a second candidate was recorded.
func (d RoutingDecision) HasRunnerUp() bool {
	return d.RunnerUpAgentID != ""
}
