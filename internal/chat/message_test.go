package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatadmision/admitchat/internal/api"
)

func TestMessageID_Variants(t *testing.T) {
	pending := NewPendingID()
	require.False(t, pending.Confirmed())
	require.NotEmpty(t, pending.String())

	other := NewPendingID()
	require.NotEqual(t, pending.String(), other.String())

	confirmed := ConfirmedID("srv-42")
	require.True(t, confirmed.Confirmed())
	require.Equal(t, "srv-42", confirmed.String())
}

func TestFromServerAnswer(t *testing.T) {
	msg := FromServerAnswer(api.ChatMessage{
		ID:        "m1",
		Question:  "q",
		Response:  "r",
		Sources:   []string{"a.pdf"},
		Timestamp: "2026-08-30T10:00:00Z",
		EnhancedInfo: &api.EnhancedInfo{
			Confidence: &api.ConfidenceInfo{Level: "high", Score: 0.9},
		},
	})
	require.True(t, msg.ID.Confirmed())
	require.Equal(t, RoleAssistant, msg.Role)
	require.Equal(t, "r", msg.Content)
	require.Equal(t, []string{"a.pdf"}, msg.Sources)
	require.Equal(t, "high", msg.Enhanced.Confidence.Level)
	require.Equal(t, 2026, msg.Timestamp.Year())
}

func TestFromServerTurn_QuestionFirst(t *testing.T) {
	pair := FromServerTurn(api.ChatMessage{ID: "m1", Question: "q", Response: "r"})
	require.Len(t, pair, 2)
	require.Equal(t, RoleUser, pair[0].Role)
	require.Equal(t, "q", pair[0].Content)
	require.Equal(t, RoleAssistant, pair[1].Role)
	require.Equal(t, "r", pair[1].Content)
	require.True(t, pair[0].ID.Confirmed())
	require.NotEqual(t, pair[0].ID.String(), pair[1].ID.String())
}

func TestParseTime(t *testing.T) {
	for _, in := range []string{
		"2026-08-30T10:00:00Z",
		"2026-08-30T10:00:00.123456Z",
		"2026-08-30 10:00:00",
	} {
		parsed := ParseTime(in)
		require.False(t, parsed.IsZero(), in)
		require.Equal(t, time.August, parsed.Month())
	}
	require.True(t, ParseTime("garbage").IsZero())
}

func TestSessionAppendAndCount(t *testing.T) {
	var s Session
	require.False(t, s.Confirmed())
	s.Append(NewUserMessage("hola", time.Now()))
	s.Append(NewNotice("bienvenida", time.Now()))
	require.Equal(t, 2, s.MessageCount())

	s.ID = "conv-1"
	require.True(t, s.Confirmed())
}
