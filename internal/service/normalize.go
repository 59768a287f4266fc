package service

import (
	"github.com/velumlaw/counsel/internal/domain/chat"
)

// LeadingPolicy selects how normalization recovers when the history does not
// open with a user turn. Different turn types need different recoveries, so
// the policy is supplied by the call site rather than guessed globally.
type LeadingPolicy int

const (
	// DropLeading discards leading non-user entries.
	DropLeading LeadingPolicy = iota
	// SynthesizeUser prepends a minimal placeholder user entry instead.
	SynthesizeUser
)

// placeholderUserText opens greeting-style flows whose stored history begins
// with a model turn.
const placeholderUserText = "..."

// NormalizeHistory reshapes an arbitrary turn list into the alternating
// sequence a chat API requires:
//
//  1. system-role entries are dropped (the directive carries them),
//  2. adjacent same-role entries merge, texts joined by a blank line and
//     citation lists concatenated in order,
//  3. the result is made to start with a user turn per the given policy.
func NormalizeHistory(history []chat.Turn, policy LeadingPolicy) []chat.Turn {
	merged := make([]chat.Turn, 0, len(history))

	for _, t := range history {
		if t.Role != chat.RoleUser && t.Role != chat.RoleModel {
			continue
		}
		if n := len(merged); n > 0 && merged[n-1].Role == t.Role {
			prev := &merged[n-1]
			if prev.Text != "" && t.Text != "" {
				prev.Text += "\n\n" + t.Text
			} else {
				prev.Text += t.Text
			}
			prev.Citations = append(prev.Citations, t.Citations...)
			prev.Attachments = append(prev.Attachments, t.Attachments...)
			continue
		}
		merged = append(merged, t)
	}

	if len(merged) == 0 || merged[0].Role == chat.RoleUser {
		return merged
	}

	switch policy {
	case SynthesizeUser:
		return append([]chat.Turn{{Role: chat.RoleUser, Text: placeholderUserText}}, merged...)
	default:
		for len(merged) > 0 && merged[0].Role != chat.RoleUser {
			merged = merged[1:]
		}
		return merged
	}
}
