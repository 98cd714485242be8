package history

import "strings"

// Context is the rendered view of a conversation handed to the LLM
// adapter: a rolling summary plus the token-budgeted suffix of recent
// turns.
type Context struct {
	Summary    string
	Window     []Turn
	TokenCount int
}

// ToPrompt renders the Context to a single prompt string. An empty
// Context (no summary, no window) renders to the empty string. When
// includeRoles is false, turns are rendered bare (no "Role:" prefix).
func (c Context) ToPrompt(includeRoles bool) string {
	if len(c.Window) == 0 && c.Summary == "" {
		return ""
	}

	var lines []string
	if c.Summary != "" {
		lines = append(lines, "Previous summary: "+c.Summary)
	}
	for _, t := range c.Window {
		if includeRoles {
			lines = append(lines, t.Role.displayName()+": "+t.Text)
		} else {
			lines = append(lines, t.Text)
		}
	}
	lines = append(lines, "Assistant:")
	return strings.Join(lines, "\n")
}
