package capability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/matchday/pkg/models"
)

func TestNewMatrix_RejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
	}{
		{"negative score", Entry{"a", models.CapabilityHelp, -0.1}},
		{"score above one", Entry{"a", models.CapabilityHelp, 1.5}},
		{"empty agent", Entry{"", models.CapabilityHelp, 0.5}},
		{"empty capability", Entry{"a", "", 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMatrix([]Entry{tt.entry})
			assert.Error(t, err)
		})
	}
}

func TestMatrix_Score(t *testing.T) {
	m, err := NewMatrix([]Entry{
		{"b", models.CapabilityMessaging, 0.8},
		{"a", models.CapabilityHelp, 1.0},
		{"a", models.CapabilityHelp, 0.6},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.6, m.Score("a", models.CapabilityHelp))
	assert.Equal(t, 0.0, m.Score("a", models.CapabilityMessaging))
	assert.Equal(t, 0.0, m.Score("ghost", models.CapabilityHelp))
	assert.Equal(t, []string{"a", "b"}, m.Agents())
}

func TestMatrix_NilIsEmpty(t *testing.T) {
	var m *Matrix
	assert.Equal(t, 0.0, m.Score("a", models.CapabilityHelp))
	assert.Empty(t, m.Agents())
}

func TestParse(t *testing.T) {
	data := []byte(`
agents:
  status_agent:
    self_status_read: 1.0
  comms_agent:
    messaging: 0.9
    team_data_read: 0.2
`)
	m, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"comms_agent", "status_agent"}, m.Agents())
	assert.Equal(t, 0.9, m.Score("comms_agent", models.CapabilityMessaging))
	assert.Equal(t,
		[]models.Capability{models.CapabilityMessaging, models.CapabilityTeamDataRead},
		m.Capabilities("comms_agent"))
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("agents: ["))
	assert.Error(t, err)

	_, err = Parse([]byte("agents: {}"))
	assert.Error(t, err)

	_, err = Parse([]byte("agents:\n  a:\n    help: 2\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	m, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMatrix().Agents(), m.Agents())

	path := filepath.Join(dir, "matrix.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agents:\n  x:\n    help: 0.5\n"), 0644))
	m, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, m.Agents())
}

func TestMarshal_RoundTripsThroughParse(t *testing.T) {
	data, err := DefaultMatrix().Marshal()
	require.NoError(t, err)

	m, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultMatrix().Entries(), m.Entries())
}

func TestDefaultMatrix_CoversEveryIntentCapability(t *testing.T) {
	m := DefaultMatrix()
	for _, tag := range models.AllIntentTags() {
		for _, c := range tag.Capabilities() {
			best := 0.0
			for _, a := range m.Agents() {
				if s := m.Score(a, c); s > best {
					best = s
				}
			}
			assert.Greater(t, best, 0.0, "no agent for %s (intent %s)", c, tag)
		}
	}
}
