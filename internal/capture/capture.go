// Package capture records what tools actually returned during a request,
// independent of what agents say they did.
package capture

import (
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ShayCichocki/matchday/pkg/models"
)

// maxSummary bounds stored input and output summaries.
const maxSummary = 500

// Call is one finished tool invocation as seen by the invoker.
type Call struct {
	Input  string
	Output string
	// Items is the number of enumerated records the tool returned.
	Items int
	Err   error
	// Write marks a tool that changes team state.
	Write bool
}

// Capture holds append-only records per subtask for one request.
// Subtasks of the same request record concurrently, so all methods lock.
// A Capture must never be shared between requests; Begin clears it.
type Capture struct {
	mu        sync.Mutex
	requestID string
	records   map[string][]models.ToolInvocationRecord
	now       func() time.Time
}

// New creates an empty capture.
func New() *Capture {
	return &Capture{
		records: make(map[string][]models.ToolInvocationRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Begin clears all records and tags the capture with a new request ID.
func (c *Capture) Begin(requestID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestID = requestID
	c.records = make(map[string][]models.ToolInvocationRecord)
}

// RequestID returns the ID passed to the last Begin.
func (c *Capture) RequestID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestID
}

// Record appends one invocation to the subtask's list.
func (c *Capture) Record(subtaskID, toolName string, call Call) models.ToolInvocationRecord {
	rec := models.ToolInvocationRecord{
		SubtaskID:     subtaskID,
		ToolName:      toolName,
		InputSummary:  truncate(call.Input),
		OutputSummary: truncate(call.Output),
		ItemCount:     call.Items,
		Write:         call.Write,
	}
	if call.Err != nil {
		rec.Error = call.Err.Error()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	rec.Timestamp = c.now()
	c.records[subtaskID] = append(c.records[subtaskID], rec)
	return rec
}

// OutputsFor returns a copy of the subtask's records in capture order.
func (c *Capture) OutputsFor(subtaskID string) []models.ToolInvocationRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	recs := c.records[subtaskID]
	if len(recs) == 0 {
		return nil
	}
	return append([]models.ToolInvocationRecord(nil), recs...)
}

// Count returns how many records the subtask has so far.
func (c *Capture) Count(subtaskID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records[subtaskID])
}

// Subtasks returns the IDs that have at least one record, sorted.
func (c *Capture) Subtasks() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.records))
	for id, recs := range c.records {
		if len(recs) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the total number of records across subtasks.
func (c *Capture) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, recs := range c.records {
		n += len(recs)
	}
	return n
}

func truncate(s string) string {
	if len(s) <= maxSummary {
		return s
	}
	cut := maxSummary
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
