package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/matchday/internal/llm"
	"github.com/ShayCichocki/matchday/internal/logging"
	"github.com/ShayCichocki/matchday/pkg/models"
)

func publicCtx(text string) models.StandardizedContext {
	return models.NewContext(text, models.ContextFields{UserID: "u1", ChannelKind: models.ChannelPublic})
}

func privilegedCtx(text string) models.StandardizedContext {
	return models.NewContext(text, models.ContextFields{UserID: "u1", ChannelKind: models.ChannelPrivileged})
}

// failingCompleter fails the test if the model is consulted.
func failingCompleter(t *testing.T) llm.Completer {
	return llm.CompleterFunc(func(ctx context.Context, prompt, hint string) (string, error) {
		t.Fatalf("model should not be called")
		return "", nil
	})
}

func TestClassify_Rules(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		privileged   bool
		want         models.IntentTag
		wantEntities map[string]string
	}{
		{"status question", "What is my status?", false, models.IntentSelfStatus, nil},
		{"status command", "/status", false, models.IntentSelfStatus, nil},
		{"help command", "/help", false, models.IntentHelp, nil},
		{"help word", "  HELP ", false, models.IntentHelp, nil},
		{"bare status public", "status", false, models.IntentSelfStatus, nil},
		{"bare status privileged", "status", true, models.IntentTeamOverview, nil},
		{"my status privileged", "what is my status", true, models.IntentSelfStatus, nil},
		{"players command", "/players", false, models.IntentListPlayers, nil},
		{"player command keeps case", "/player Sam Kerr", false, models.IntentPlayerLookup,
			map[string]string{"player": "Sam Kerr"}},
		{"message command keeps case", "/message Training moved to 7pm", true, models.IntentSendMessage,
			map[string]string{"message": "Training moved to 7pm"}},
		{"schedule command", "/schedule rovers 2024-05-01", true, models.IntentScheduleMatch,
			map[string]string{"opponent": "rovers", "date": "2024-05-01"}},
		{"schedule phrase", "please schedule a match against Rovers on 2024-05-01", true, models.IntentScheduleMatch,
			map[string]string{"opponent": "rovers", "date": "2024-05-01"}},
		{"roster", "show me the roster", false, models.IntentListPlayers, nil},
		{"next match", "when is the next match?", false, models.IntentMatchInfo, nil},
		{"availability", "who is available on saturday", false, models.IntentAvailabilityReport, nil},
		{"tell the team", "tell the team that training is cancelled", true, models.IntentSendMessage,
			map[string]string{"message": "training is cancelled"}},
		{"player lookup", "tell me about jordan", false, models.IntentPlayerLookup,
			map[string]string{"player": "jordan"}},
		{"greeting", "hello!", false, models.IntentChat, nil},
	}

	c := New(failingCompleter(t), WithLogger(logging.Nop()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sctx := publicCtx(tt.text)
			if tt.privileged {
				sctx = privilegedCtx(tt.text)
			}
			got := c.Classify(context.Background(), tt.text, sctx)
			assert.Equal(t, tt.want, got.Tag)
			assert.Equal(t, models.IntentSourceRule, got.Source)
			assert.NotEmpty(t, got.Rule)
			if tt.wantEntities != nil {
				assert.Equal(t, tt.wantEntities, got.Entities)
			}
		})
	}
}

func TestClassify_CommandNeedsExactName(t *testing.T) {
	c := New(nil, WithLogger(logging.Nop()))
	got := c.Classify(context.Background(), "/players", publicCtx("/players"))
	assert.Equal(t, models.IntentListPlayers, got.Tag)

	got = c.Classify(context.Background(), "/playerz", publicCtx("/playerz"))
	assert.Equal(t, models.IntentUnknown, got.Tag)
}

func TestClassify_ModelFallback(t *testing.T) {
	var calls int
	completer := llm.CompleterFunc(func(ctx context.Context, prompt, hint string) (string, error) {
		calls++
		assert.Contains(t, prompt, "how many goals has priya scored")
		assert.Contains(t, prompt, "player_lookup")
		assert.NotEmpty(t, hint)
		return `{"intent": "player_lookup", "entities": {"player": "Priya", "empty": ""}}`, nil
	})
	c := New(completer, WithLogger(logging.Nop()))

	got := c.Classify(context.Background(), "how many goals has priya scored", publicCtx("x"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, models.IntentPlayerLookup, got.Tag)
	assert.Equal(t, models.IntentSourceModel, got.Source)
	assert.Equal(t, map[string]string{"player": "Priya"}, got.Entities)
	assert.False(t, got.Degraded)
}

func TestClassify_DegradesToUnknown(t *testing.T) {
	tests := []struct {
		name      string
		completer llm.Completer
	}{
		{"nil completer", nil},
		{"model error", llm.CompleterFunc(func(ctx context.Context, p, h string) (string, error) {
			return "", errors.New("connection reset")
		})},
		{"unknown tag", llm.CompleterFunc(func(ctx context.Context, p, h string) (string, error) {
			return `{"intent": "order_pizza"}`, nil
		})},
		{"prose", llm.CompleterFunc(func(ctx context.Context, p, h string) (string, error) {
			return "I think they want to know about the weather", nil
		})},
		{"timeout", llm.CompleterFunc(func(ctx context.Context, p, h string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.completer, WithTimeout(20*time.Millisecond), WithLogger(logging.Nop()))
			got := c.Classify(context.Background(), "blorp the flibber", publicCtx("x"))
			assert.Equal(t, models.IntentUnknown, got.Tag)
			assert.Equal(t, models.IntentSourceFallback, got.Source)
			assert.True(t, got.Degraded)
		})
	}
}

func TestClassify_EmptyTextSkipsModel(t *testing.T) {
	c := New(failingCompleter(t), WithLogger(logging.Nop()))
	got := c.Classify(context.Background(), "   ?? ", publicCtx(""))
	assert.Equal(t, models.IntentUnknown, got.Tag)
	assert.False(t, got.Degraded)
}

func TestClassify_CustomRules(t *testing.T) {
	rules := []Rule{keywords("only_help", models.IntentHelp, "assist")}
	c := New(nil, WithRules(rules), WithLogger(logging.Nop()))

	assert.Equal(t, models.IntentHelp, c.Classify(context.Background(), "assist me", publicCtx("")).Tag)
	assert.Equal(t, models.IntentUnknown, c.Classify(context.Background(), "/help", publicCtx("")).Tag)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "what is my status", Normalize("  What   is my STATUS?! "))
	assert.Equal(t, "", Normalize("?"))
}

func TestParseModelOutput(t *testing.T) {
	in, err := ParseModelOutput("```json\n{\"intent\":\"Team Overview\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, models.IntentTeamOverview, in.Tag)
	assert.Nil(t, in.Entities)

	_, err = ParseModelOutput(`{"entities":{}}`)
	assert.Error(t, err)
}
