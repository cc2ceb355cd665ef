package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ShayCichocki/matchday/internal/tools"
)

// toolAgentPrompt frames one step of the tool loop.
// Args: agent id, subtask description, requester name, dependency inputs,
// tool list, transcript so far.
const toolAgentPrompt = `You are %s, one of several assistants serving a football team chat.

Task: %s
Requested by: %s
%s
Tools you may call:
%s
%s
Respond with exactly one JSON object and nothing else:
- to call a tool: {"tool": "<name>", "input": {"<key>": "<value>"}}
- to finish: {"answer": "<reply to the user>"}

Only state facts that a tool returned. If no tool can answer, say so plainly.`

const toolAgentHint = `{"tool": string, "input": object} | {"answer": string}`

func buildToolPrompt(agentID string, req Request, transcript []string) string {
	return fmt.Sprintf(toolAgentPrompt,
		agentID,
		req.Subtask.Description,
		req.Context.Name(),
		formatInputs(req.Inputs),
		formatTools(req.Tools.Tools()),
		formatTranscript(transcript),
	)
}

func formatInputs(inputs map[string]string) string {
	if len(inputs) == 0 {
		return ""
	}
	ids := make([]string, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("\nResults from earlier steps:\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "[%s]\n%s\n", id, inputs[id])
	}
	return b.String()
}

func formatTools(list []tools.Tool) string {
	if len(list) == 0 {
		return "(none)\n"
	}
	var b strings.Builder
	for _, t := range list {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
	}
	return b.String()
}

func formatTranscript(transcript []string) string {
	if len(transcript) == 0 {
		return ""
	}
	return "\nTool results so far:\n" + strings.Join(transcript, "\n") + "\n"
}
