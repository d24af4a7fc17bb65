// Package prompt assembles the text sent to the language model: retrieved
// context blocks, bounded conversation history, and the draft and refine
// instructions.
package prompt

import (
	"fmt"
	"strings"

	"github.com/bull/docchat-server/internal/retriever"
)

const (
	// MaxHistoryTurns bounds how many prior exchanges are replayed into a
	// prompt. Older turns are dropped from the front.
	MaxHistoryTurns = 10

	// NoContextMarker stands in for the context section when retrieval
	// returned nothing. The model is instructed to say it cannot answer
	// from the documents rather than invent an answer.
	NoContextMarker = "(no relevant document context was found)"
)

// Role values for conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one prior exchange message in a conversation.
type Turn struct {
	Role    string
	Content string
}

// Context is the assembled retrieval context for one query: the formatted
// block of chunk texts and the source labels they came from, in rank order.
type Context struct {
	Text    string
	Sources []string
}

// Assemble formats retrieved chunks into a numbered context block. Chunks
// arrive already ranked; order is preserved. With no chunks the text is the
// no-context marker and the source list is empty.
func Assemble(results []retriever.Result) Context {
	if len(results) == 0 {
		return Context{Text: NoContextMarker, Sources: []string{}}
	}

	var b strings.Builder
	sources := make([]string, len(results))
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s\n%s", i+1, res.Label, strings.TrimSpace(res.Chunk.Text))
		sources[i] = res.Label
	}
	return Context{Text: b.String(), Sources: sources}
}

// FormatHistory renders prior turns for inclusion in a prompt, keeping only
// the most recent MaxHistoryTurns. Returns "" when there is no history.
func FormatHistory(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	if len(turns) > MaxHistoryTurns {
		turns = turns[len(turns)-MaxHistoryTurns:]
	}

	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		label := "User"
		if turn.Role == RoleAssistant {
			label = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s", label, strings.TrimSpace(turn.Content))
	}
	return b.String()
}
