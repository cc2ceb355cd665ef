package decompose

// decompositionPrompt is the prompt template for splitting a request into subtasks.
// Arguments: request text, intent tag, entities, capability list, max subtasks.
const decompositionPrompt = `Break this football team chat request into a short ordered list of subtasks.
Each subtask is handled by one specialist agent.

User request:
%s

Classified intent: %s
Extracted entities: %s

Capabilities you may require (use these exact names):
%s

Return ONLY a JSON array (no other text) with at most %d items:
[
  {
    "description": "What this subtask must produce",
    "required_capabilities": ["capability_name"],
    "depends_on": [0]
  }
]

Rules:
- depends_on lists the zero-based indices of EARLIER subtasks whose output this subtask needs
- never reference the subtask itself or a later subtask
- use an empty array [] for depends_on when there are no dependencies
- prefer fewer subtasks; only split when the request needs data from different areas
- the last subtask should produce the answer shown to the user`

// decompositionHint is passed as the structured output hint.
const decompositionHint = `[{"description": "string", "required_capabilities": ["string"], "depends_on": [0]}]`
