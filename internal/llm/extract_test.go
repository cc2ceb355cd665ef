package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject(t *testing.T) {
	res, err := ExtractObject("Sure!\n```json\n{\"intent\": \"help\", \"entities\": {}}\n```")
	require.NoError(t, err)
	assert.Equal(t, "help", res.Get("intent").String())
}

func TestExtractArray(t *testing.T) {
	res, err := ExtractArray(`here: [{"description":"a"},{"description":"b"}] done`)
	require.NoError(t, err)
	assert.Len(t, res.Array(), 2)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no braces", "I cannot help with that"},
		{"reversed", "} nope {"},
		{"broken json", `{"intent": "help",}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractObject(tt.text)
			assert.Error(t, err)
		})
	}
}
