package domain

import "strings"

// Result is one normalised upstream choice. Role is empty for completion
// modes, which have no speaker.
type Result struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Delta is one incremental fragment for a single in-flight choice.
// Either field may be absent in any fragment.
type Delta struct {
	Index   int     `json:"index"`
	Content *string `json:"content,omitempty"`
	Role    *string `json:"role,omitempty"`
}

// Reassemble joins streamed fragments for choice 0 into a turn.
// Non-empty content deltas are concatenated in arrival order and the first
// non-empty role wins; the role defaults to assistant.
func Reassemble(batches [][]Delta) Turn {
	var b strings.Builder
	role := ""
	for _, batch := range batches {
		for _, d := range batch {
			if d.Index != 0 {
				continue
			}
			if role == "" && d.Role != nil && *d.Role != "" {
				role = *d.Role
			}
			if d.Content != nil && *d.Content != "" {
				b.WriteString(*d.Content)
			}
		}
	}
	if role == "" {
		role = string(RoleAssistant)
	}
	return Turn{Role: Role(role), Content: b.String()}
}
