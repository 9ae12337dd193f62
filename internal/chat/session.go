package chat

import "time"

// Session is the active conversation. ID is empty until the backend confirms
// the first turn; once set it never changes for the session's lifetime. The
// log is append-only except for the wholesale replacement a resume performs.
type Session struct {
	ID        string
	Title     string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Confirmed reports whether the backend has assigned an identifier.
func (s *Session) Confirmed() bool { return s.ID != "" }

// MessageCount returns the log length.
func (s *Session) MessageCount() int { return len(s.Messages) }

// Append adds entries to the end of the log.
func (s *Session) Append(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}
