package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatadmision/admitchat/internal/api"
	"github.com/chatadmision/admitchat/internal/chat"
)

type mockBackend struct {
	chatFunc  func(ctx context.Context, question, conversationID string) (api.ChatResponse, error)
	convFunc  func(ctx context.Context, id string) (api.ConversationWithMessages, error)
	chatCalls int
}

func (m *mockBackend) Chat(ctx context.Context, question, conversationID string) (api.ChatResponse, error) {
	m.chatCalls++
	if m.chatFunc != nil {
		return m.chatFunc(ctx, question, conversationID)
	}
	return api.ChatResponse{
		ConversationID: "conv-1",
		Message: api.ChatMessage{
			ID:        fmt.Sprintf("msg-%d", m.chatCalls),
			Question:  question,
			Response:  "respuesta " + question,
			Timestamp: "2026-08-30T10:00:00Z",
		},
	}, nil
}

func (m *mockBackend) Conversation(ctx context.Context, id string) (api.ConversationWithMessages, error) {
	if m.convFunc != nil {
		return m.convFunc(ctx, id)
	}
	return api.ConversationWithMessages{}, errors.New("not found")
}

type stubHealth struct{ healthy bool }

func (s *stubHealth) Check(context.Context) bool { return s.healthy }

func newTestManager(t *testing.T, backend *mockBackend, healthy bool) *Manager {
	t.Helper()
	m := New(backend, &stubHealth{healthy: healthy})
	m.OfflineDelay = 0
	return m
}

func TestInit_WelcomeDependsOnHealth(t *testing.T) {
	m := newTestManager(t, &mockBackend{}, true)
	require.NoError(t, m.Init(context.Background(), ""))
	msgs := m.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, chat.RoleAssistant, msgs[0].Role)
	require.Equal(t, WelcomeOnline, msgs[0].Content)
	require.Equal(t, StateActiveNew, m.State())

	m2 := newTestManager(t, &mockBackend{}, false)
	require.NoError(t, m2.Init(context.Background(), ""))
	require.Equal(t, WelcomeOffline, m2.Messages()[0].Content)
}

func TestSend_AppendsExactlyOneTurnPerCall(t *testing.T) {
	sources := [][]string{{"guia.pdf"}, {"calendario.pdf", "faq.pdf"}, nil}
	backend := &mockBackend{}
	backend.chatFunc = func(_ context.Context, q, convID string) (api.ChatResponse, error) {
		n := backend.chatCalls
		return api.ChatResponse{
			ConversationID: "conv-1",
			Message: api.ChatMessage{
				ID:        fmt.Sprintf("msg-%d", n),
				Question:  q,
				Response:  fmt.Sprintf("respuesta %d", n),
				Sources:   sources[n-1],
				Timestamp: "2026-08-30T10:00:00Z",
				EnhancedInfo: &api.EnhancedInfo{
					Confidence: &api.ConfidenceInfo{Level: "high", Score: float64(n)},
				},
			},
		}, nil
	}

	m := newTestManager(t, backend, true)
	require.NoError(t, m.Init(context.Background(), ""))

	base := len(m.Messages())
	for i := 1; i <= 3; i++ {
		require.NoError(t, m.Send(context.Background(), fmt.Sprintf("pregunta %d", i)))
		msgs := m.Messages()
		require.Len(t, msgs, base+2*i, "each send adds one user and one assistant entry")

		answer := msgs[len(msgs)-1]
		require.Equal(t, chat.RoleAssistant, answer.Role)
		require.Equal(t, sources[i-1], answer.Sources)
		require.NotNil(t, answer.Enhanced.Confidence)
		require.Equal(t, float64(i), answer.Enhanced.Confidence.Score)
		require.True(t, answer.ID.Confirmed())

		user := msgs[len(msgs)-2]
		require.Equal(t, chat.RoleUser, user.Role)
		require.False(t, user.ID.Confirmed())
	}
}

func TestSend_FirstTurnConfirmsSessionOnce(t *testing.T) {
	m := newTestManager(t, &mockBackend{}, true)

	var created []string
	m.Hooks.SessionCreated = func(id string) { created = append(created, id) }

	require.NoError(t, m.Init(context.Background(), ""))
	require.Empty(t, m.SessionID())

	require.NoError(t, m.Send(context.Background(), "hola"))
	require.Equal(t, "conv-1", m.SessionID())
	require.Equal(t, StateActiveConfirmed, m.State())

	require.NoError(t, m.Send(context.Background(), "otra pregunta"))
	require.Equal(t, []string{"conv-1"}, created, "session created signal fires exactly once")
}

func TestSend_MessageSentFiresEveryTurn(t *testing.T) {
	m := newTestManager(t, &mockBackend{}, true)
	sent := 0
	m.Hooks.MessageSent = func(string) { sent++ }
	require.NoError(t, m.Init(context.Background(), ""))
	require.NoError(t, m.Send(context.Background(), "uno"))
	require.NoError(t, m.Send(context.Background(), "dos"))
	require.Equal(t, 2, sent)
}

func TestSend_DegradedModeSkipsBackend(t *testing.T) {
	backend := &mockBackend{}
	m := newTestManager(t, backend, false)
	require.NoError(t, m.Init(context.Background(), ""))

	require.NoError(t, m.Send(context.Background(), "hola"))
	require.Zero(t, backend.chatCalls, "no call to the chat endpoint while unreachable")

	msgs := m.Messages()
	last := msgs[len(msgs)-1]
	require.Equal(t, chat.RoleAssistant, last.Role)
	require.Equal(t, OfflineNotice, last.Content)
	require.Equal(t, "hola", msgs[len(msgs)-2].Content)
	require.Empty(t, m.SessionID())
}

func TestSend_FailurePreservesInput(t *testing.T) {
	backend := &mockBackend{
		chatFunc: func(context.Context, string, string) (api.ChatResponse, error) {
			return api.ChatResponse{}, &api.BackendError{Message: "boom"}
		},
	}
	m := newTestManager(t, backend, true)
	var notices []string
	m.Hooks.Notice = func(text string) { notices = append(notices, text) }
	require.NoError(t, m.Init(context.Background(), ""))

	require.NoError(t, m.Send(context.Background(), "X"))

	msgs := m.Messages()
	require.Equal(t, "X", msgs[len(msgs)-2].Content, "failed turn keeps the question visible")
	require.Equal(t, ErrorNotice, msgs[len(msgs)-1].Content)
	require.Empty(t, m.SessionID(), "session id unchanged on failure")
	require.Equal(t, []string{ErrorNotice}, notices)
}

func TestSend_Preconditions(t *testing.T) {
	m := newTestManager(t, &mockBackend{}, true)
	require.ErrorIs(t, m.Send(context.Background(), "   "), ErrEmptyQuestion)
	require.ErrorIs(t, m.Send(context.Background(), "hola"), ErrNotActive)
}

func serverHistory() api.ConversationWithMessages {
	return api.ConversationWithMessages{
		ID:        "conv-9",
		Title:     "Becas",
		CreatedAt: "2026-08-28T09:00:00Z",
		UpdatedAt: "2026-08-29T09:00:00Z",
		Messages: []api.ChatMessage{
			{ID: "m1", Question: "q1", Response: "r1", Timestamp: "2026-08-28T09:00:00Z"},
			{ID: "m2", Question: "q2", Response: "r2", Timestamp: "2026-08-29T09:00:00Z"},
		},
	}
}

func TestResume_ReplacesLogWholesale(t *testing.T) {
	backend := &mockBackend{
		convFunc: func(_ context.Context, id string) (api.ConversationWithMessages, error) {
			return serverHistory(), nil
		},
	}
	m := newTestManager(t, backend, true)
	require.NoError(t, m.Init(context.Background(), "conv-9"))

	require.Equal(t, "conv-9", m.SessionID())
	require.Equal(t, StateActiveConfirmed, m.State())

	msgs := m.Messages()
	require.Len(t, msgs, 5, "welcome plus two expanded turns")
	require.Equal(t, WelcomeOnline, msgs[0].Content)
	require.Equal(t, "q1", msgs[1].Content)
	require.Equal(t, "r1", msgs[2].Content)
	require.Equal(t, "q2", msgs[3].Content)
	require.Equal(t, "r2", msgs[4].Content)

	// Idempotence: resuming again yields the identical log.
	require.NoError(t, m.Resume(context.Background(), "conv-9"))
	again := m.Messages()
	require.Len(t, again, 5)
	for i := range msgs[1:] {
		require.Equal(t, msgs[i+1].Content, again[i+1].Content)
		require.Equal(t, msgs[i+1].ID, again[i+1].ID)
	}
}

func TestResume_NotFoundFallsBackToNewSession(t *testing.T) {
	m := newTestManager(t, &mockBackend{}, true)
	err := m.Init(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, StateActiveNew, m.State())
	require.Empty(t, m.SessionID())

	msgs := m.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, WelcomeOnline, msgs[0].Content)

	// Still usable after the fallback.
	require.NoError(t, m.Send(context.Background(), "hola"))
	require.Equal(t, "conv-1", m.SessionID())
}

func TestNewChat_ClearsIDAndLog(t *testing.T) {
	m := newTestManager(t, &mockBackend{}, true)
	require.NoError(t, m.Init(context.Background(), ""))
	require.NoError(t, m.Send(context.Background(), "hola"))
	require.NotEmpty(t, m.SessionID())

	require.NoError(t, m.NewChat())
	require.Empty(t, m.SessionID())
	require.Equal(t, StateActiveNew, m.State())
	msgs := m.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, WelcomeOnline, msgs[0].Content)
}

func TestHandleDeleted(t *testing.T) {
	m := newTestManager(t, &mockBackend{}, true)
	require.NoError(t, m.Init(context.Background(), ""))
	require.NoError(t, m.Send(context.Background(), "hola"))
	active := m.SessionID()

	// Deleting another session leaves the active one untouched.
	require.NoError(t, m.HandleDeleted("some-other-id"))
	require.Equal(t, active, m.SessionID())
	require.Greater(t, len(m.Messages()), 1)

	// Deleting the active session forces the new-session transition.
	require.NoError(t, m.HandleDeleted(active))
	require.Empty(t, m.SessionID())
	require.Equal(t, StateActiveNew, m.State())
	require.Len(t, m.Messages(), 1)
}

func TestSend_StaleResponseDiscardedAfterNewChat(t *testing.T) {
	m := newTestManager(t, nil, true)
	backend := &mockBackend{}
	backend.chatFunc = func(_ context.Context, q, _ string) (api.ChatResponse, error) {
		// The user abandons the session while this call is in flight.
		require.NoError(t, m.NewChat())
		return api.ChatResponse{
			ConversationID: "conv-1",
			Message:        api.ChatMessage{ID: "late", Response: "tarde", Timestamp: "2026-08-30T10:00:00Z"},
		}, nil
	}
	m.backend = backend

	require.NoError(t, m.Init(context.Background(), ""))
	require.NoError(t, m.Send(context.Background(), "hola"))

	msgs := m.Messages()
	require.Len(t, msgs, 1, "late answer must not leak into the new session")
	require.Equal(t, WelcomeOnline, msgs[0].Content)
	require.Empty(t, m.SessionID())
}

func TestResume_ActiveDeletedMidFlightDiscardsFetch(t *testing.T) {
	m := newTestManager(t, nil, true)
	backend := &mockBackend{}
	backend.chatFunc = func(_ context.Context, q, _ string) (api.ChatResponse, error) {
		return api.ChatResponse{
			ConversationID: "conv-9",
			Message:        api.ChatMessage{ID: "m0", Question: q, Response: "r0", Timestamp: "2026-08-30T10:00:00Z"},
		}, nil
	}
	backend.convFunc = func(_ context.Context, id string) (api.ConversationWithMessages, error) {
		// The session is deleted while its own resume fetch is in flight.
		require.NoError(t, m.HandleDeleted(id))
		return serverHistory(), nil
	}
	m.backend = backend

	require.NoError(t, m.Init(context.Background(), ""))
	require.NoError(t, m.Send(context.Background(), "hola"))
	require.Equal(t, "conv-9", m.SessionID())

	require.NoError(t, m.Resume(context.Background(), "conv-9"))

	require.Equal(t, StateActiveNew, m.State())
	require.Empty(t, m.SessionID(), "deleted session's log must not come back")
	msgs := m.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, WelcomeOnline, msgs[0].Content)
}

type recorderSpy struct {
	ids  []string
	msgs []chat.Message
}

func (r *recorderSpy) Record(conversationID string, msgs ...chat.Message) {
	r.ids = append(r.ids, conversationID)
	r.msgs = append(r.msgs, msgs...)
}

func TestSend_RecordsConfirmedTurns(t *testing.T) {
	m := newTestManager(t, &mockBackend{}, true)
	spy := &recorderSpy{}
	m.Recorder = spy
	require.NoError(t, m.Init(context.Background(), ""))
	require.NoError(t, m.Send(context.Background(), "hola"))

	require.Equal(t, []string{"conv-1"}, spy.ids)
	require.Len(t, spy.msgs, 2)
	require.Equal(t, chat.RoleUser, spy.msgs[0].Role)
	require.Equal(t, chat.RoleAssistant, spy.msgs[1].Role)
}

func TestSend_UpdatedAtAdvances(t *testing.T) {
	m := newTestManager(t, &mockBackend{}, true)
	require.NoError(t, m.Init(context.Background(), ""))
	require.NoError(t, m.Send(context.Background(), "hola"))

	m.mu.Lock()
	updated := m.session.UpdatedAt
	m.mu.Unlock()
	want, _ := time.Parse(time.RFC3339, "2026-08-30T10:00:00Z")
	require.Equal(t, want, updated)
}
