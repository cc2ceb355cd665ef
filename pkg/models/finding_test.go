package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasBlocking(t *testing.T) {
	assert.False(t, HasBlocking(nil))
	assert.False(t, HasBlocking([]ValidationFinding{{Severity: SeverityWarning}}))
	assert.True(t, HasBlocking([]ValidationFinding{
		{Severity: SeverityInfo},
		{Severity: SeverityBlocking},
	}))
}

func TestToolInvocationRecord_Enumerated(t *testing.T) {
	assert.True(t, ToolInvocationRecord{ItemCount: 2}.Enumerated())
	assert.False(t, ToolInvocationRecord{ItemCount: 0}.Enumerated())
	assert.False(t, ToolInvocationRecord{ItemCount: 3, Error: "boom"}.Enumerated())
}

func TestToolInvocationRecord_Committed(t *testing.T) {
	assert.True(t, ToolInvocationRecord{Write: true}.Committed())
	assert.False(t, ToolInvocationRecord{Write: true, Error: "denied"}.Committed())
	assert.False(t, ToolInvocationRecord{ItemCount: 2}.Committed())
}

func TestFinalAnswer_Findings(t *testing.T) {
	a := FinalAnswer{Diagnostics: []SubtaskDiagnostic{
		{SubtaskID: "st-1", Findings: []ValidationFinding{{Severity: SeverityWarning, SubtaskID: "st-1"}}},
		{SubtaskID: "st-2"},
		{SubtaskID: "st-3", Findings: []ValidationFinding{{Severity: SeverityBlocking, SubtaskID: "st-3"}}},
	}}

	got := a.Findings()
	assert.Len(t, got, 2)
	assert.Equal(t, "st-3", got[1].SubtaskID)

	d, ok := a.Diagnostic("st-2")
	assert.True(t, ok)
	assert.Equal(t, "st-2", d.SubtaskID)
	_, ok = a.Diagnostic("missing")
	assert.False(t, ok)
}
