package repository

import (
	"errors"
	"strings"

	"cluechase/internal/domain"
)

// ConversationLog is the append-only transcript for one game session. The
// whole log is replayed to the completion endpoint on every request, so
// insertion order is chronological order and nothing is ever evicted.
// Sessions are short-lived and single-user; the unbounded growth is accepted.
//
// Not safe for concurrent use. A session owns its log exclusively and the
// game loop is strictly sequential.
type ConversationLog struct {
	messages []domain.ChatMessage
}

// NewConversationLog seeds the log with the single system turn that defines
// the game master's persona and rules. The system turn is always the first
// element for the lifetime of the session.
func NewConversationLog(systemPrompt string) (*ConversationLog, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, errors.New("repository: system prompt must not be empty")
	}
	return &ConversationLog{
		messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: systemPrompt},
		},
	}, nil
}

// Append adds one turn to the end of the log. Turns must be well formed and
// only the seed turn may carry the system role.
func (l *ConversationLog) Append(msg domain.ChatMessage) error {
	switch msg.Role {
	case domain.RoleUser, domain.RoleAssistant:
	case domain.RoleSystem:
		return errors.New("repository: system turn may only be the seed")
	default:
		return errors.New("repository: unknown role " + msg.Role)
	}
	if msg.Content == "" {
		return errors.New("repository: message content must not be empty")
	}
	l.messages = append(l.messages, msg)
	return nil
}

// Snapshot returns the full ordered history, exactly as it should be sent to
// the completion endpoint. The returned slice is a copy; mutating it does not
// affect the log.
func (l *ConversationLog) Snapshot() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len reports the number of turns in the log, including the system seed.
func (l *ConversationLog) Len() int {
	return len(l.messages)
}
