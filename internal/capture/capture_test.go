package capture

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_FIFOPerSubtask(t *testing.T) {
	c := New()
	c.Begin("req-1")

	c.Record("st-1", "list_players", Call{Input: "team=t1", Output: "3 players", Items: 3})
	c.Record("st-2", "list_matches", Call{Output: "none"})
	c.Record("st-1", "get_player", Call{Input: "name=sam", Output: "sam", Items: 1})

	recs := c.OutputsFor("st-1")
	require.Len(t, recs, 2)
	assert.Equal(t, "list_players", recs[0].ToolName)
	assert.Equal(t, "get_player", recs[1].ToolName)
	assert.Equal(t, 3, recs[0].ItemCount)
	assert.False(t, recs[0].Timestamp.IsZero())
	assert.Equal(t, []string{"st-1", "st-2"}, c.Subtasks())
	assert.Equal(t, 3, c.Len())
	assert.Nil(t, c.OutputsFor("st-9"))
}

func TestCount(t *testing.T) {
	c := New()
	assert.Equal(t, 0, c.Count("st-1"))
	c.Record("st-1", "send_message", Call{Items: 1, Write: true})
	c.Record("st-2", "list_players", Call{Items: 3})
	assert.Equal(t, 1, c.Count("st-1"))
	assert.True(t, c.OutputsFor("st-1")[0].Write)
	assert.False(t, c.OutputsFor("st-2")[0].Write)
}

func TestRecord_Error(t *testing.T) {
	c := New()
	rec := c.Record("st-1", "send_message", Call{Err: errors.New("permission denied")})
	assert.Equal(t, "permission denied", rec.Error)
	assert.False(t, rec.Enumerated())
}

func TestBegin_ClearsPreviousRequest(t *testing.T) {
	c := New()
	c.Begin("req-1")
	c.Record("st-1", "list_players", Call{Items: 4})

	c.Begin("req-2")
	assert.Equal(t, "req-2", c.RequestID())
	assert.Empty(t, c.OutputsFor("st-1"))
	assert.Equal(t, 0, c.Len())
}

func TestOutputsFor_ReturnsCopy(t *testing.T) {
	c := New()
	c.Record("st-1", "a", Call{})
	recs := c.OutputsFor("st-1")
	recs[0].ToolName = "mutated"
	assert.Equal(t, "a", c.OutputsFor("st-1")[0].ToolName)
}

func TestRecord_TruncatesSummaries(t *testing.T) {
	c := New()
	rec := c.Record("st-1", "a", Call{Output: strings.Repeat("x", 2000)})
	assert.Len(t, rec.OutputSummary, maxSummary+3)
}

func TestRecord_TruncatesOnRuneBoundary(t *testing.T) {
	c := New()
	// "x" shifts the two-byte runes so byte maxSummary falls mid-rune.
	rec := c.Record("st-1", "a", Call{Output: "x" + strings.Repeat("é", 600)})
	assert.True(t, utf8.ValidString(rec.OutputSummary))
	assert.Len(t, rec.OutputSummary, maxSummary-1+3)
	assert.True(t, strings.HasSuffix(rec.OutputSummary, "é..."))
}

func TestRecord_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.Record(fmt.Sprintf("st-%d", i), "tool", Call{Input: fmt.Sprint(j)})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 400, c.Len())
	recs := c.OutputsFor("st-3")
	require.Len(t, recs, 50)
	for j, r := range recs {
		assert.Equal(t, fmt.Sprint(j), r.InputSummary)
	}
}
