package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/matchday/internal/capture"
	"github.com/ShayCichocki/matchday/internal/tools"
	"github.com/ShayCichocki/matchday/pkg/models"
)

func TestFormatInputs_SortedByID(t *testing.T) {
	got := formatInputs(map[string]string{"st-2": "second", "st-1": "first"})
	assert.Equal(t, "\nResults from earlier steps:\n[st-1]\nfirst\n[st-2]\nsecond\n", got)
	assert.Empty(t, formatInputs(nil))
}

func TestFormatTools(t *testing.T) {
	assert.Equal(t, "(none)\n", formatTools(nil))
	got := formatTools([]tools.Tool{&staticTool{name: "list_players"}})
	assert.Equal(t, "- list_players: static list_players\n", got)
}

func TestBuildToolPrompt(t *testing.T) {
	roster := &staticTool{name: "list_players", caps: []models.Capability{models.CapabilityPlayerDataRead}}
	cat, err := tools.NewCatalog(roster)
	require.NoError(t, err)

	sctx := publicCtx()
	req := Request{
		Subtask: models.Subtask{ID: "st-2", Description: "list the squad"},
		Context: sctx,
		Inputs:  map[string]string{"st-1": "Reds play United on Saturday"},
		Tools:   tools.NewInvoker(cat, capture.New(), "st-2", sctx, []models.Capability{models.CapabilityPlayerDataRead}),
	}

	prompt := buildToolPrompt("player_agent", req, []string{"list_players() returned 2 records:\nAlex\nSam"})

	assert.True(t, strings.HasPrefix(prompt, "You are player_agent,"))
	assert.Contains(t, prompt, "Task: list the squad")
	assert.Contains(t, prompt, "[st-1]\nReds play United on Saturday")
	assert.Contains(t, prompt, "- list_players: static list_players")
	assert.Contains(t, prompt, "Tool results so far:\nlist_players() returned 2 records:")
	assert.Contains(t, prompt, `{"answer": "<reply to the user>"}`)
}
