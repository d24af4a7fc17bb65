package store

import "github.com/bull/docchat-server/internal/prompt"

// Replay converts stored messages into prompt turns, preserving order.
// Messages with roles outside user/assistant are skipped.
func Replay(msgs []Message) []prompt.Turn {
	turns := make([]prompt.Turn, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case prompt.RoleUser, prompt.RoleAssistant:
			turns = append(turns, prompt.Turn{Role: m.Role, Content: m.Content})
		}
	}
	return turns
}
