// Package chat holds the conversation domain types: messages with their
// two-phase identity (optimistic client id, then server-confirmed id) and
// sessions with their append-only message log.
package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/chatadmision/admitchat/internal/api"
)

// Role is the producer of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// MessageID is the identity of a message over its lifetime. A message starts
// pending with a client-generated id; once the server confirms the turn it
// carries the authoritative server id. The two are distinct variants, not one
// field mutated in place.
type MessageID struct {
	value     string
	confirmed bool
}

// NewPendingID generates a client-side identity for an optimistic message.
func NewPendingID() MessageID {
	return MessageID{value: uuid.NewString()}
}

// ConfirmedID wraps an authoritative server-issued identity.
func ConfirmedID(serverID string) MessageID {
	return MessageID{value: serverID, confirmed: true}
}

// String returns the identifier itself, whichever variant it is.
func (id MessageID) String() string { return id.value }

// Confirmed reports whether the identity is server-issued.
func (id MessageID) Confirmed() bool { return id.confirmed }

// Message is a single entry of a session's log.
type Message struct {
	ID        MessageID
	Role      Role
	Content   string
	Timestamp time.Time

	// Assistant turns only, and only when the backend supplies them.
	Sources  []string
	Enhanced *api.EnhancedInfo
}

// NewUserMessage builds the optimistic user entry appended before any
// network round trip.
func NewUserMessage(content string, at time.Time) Message {
	return Message{
		ID:        NewPendingID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: at,
	}
}

// NewNotice builds a locally synthesized assistant entry (welcome text,
// offline notice, error notice). It never carries sources or metadata.
func NewNotice(content string, at time.Time) Message {
	return Message{
		ID:        NewPendingID(),
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: at,
	}
}

// FromServerAnswer converts the answer half of a confirmed turn into a log
// entry with its authoritative identity.
func FromServerAnswer(m api.ChatMessage) Message {
	return Message{
		ID:        ConfirmedID(m.ID),
		Role:      RoleAssistant,
		Content:   m.Response,
		Timestamp: ParseTime(m.Timestamp),
		Sources:   m.Sources,
		Enhanced:  m.EnhancedInfo,
	}
}

// FromServerTurn expands a persisted turn into its two log entries, question
// first. Resume uses it to rebuild the log from backend history.
func FromServerTurn(m api.ChatMessage) []Message {
	at := ParseTime(m.Timestamp)
	return []Message{
		{
			ID:        ConfirmedID(m.ID + ":q"),
			Role:      RoleUser,
			Content:   m.Question,
			Timestamp: at,
		},
		{
			ID:        ConfirmedID(m.ID),
			Role:      RoleAssistant,
			Content:   m.Response,
			Timestamp: at,
			Sources:   m.Sources,
			Enhanced:  m.EnhancedInfo,
		},
	}
}

// ParseTime parses the timestamp formats the backend emits. Unparseable
// input yields the zero time rather than an error.
func ParseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
