package orchestrator

import (
	"time"

	"github.com/ShayCichocki/matchday/pkg/models"
)

// Transition is one subtask status change.
type Transition struct {
	SubtaskID string
	From      models.SubtaskStatus
	To        models.SubtaskStatus
	// AgentID is the routed agent, empty when routing failed.
	AgentID  string
	Attempts int
	Err      error
	Time     time.Time
}
