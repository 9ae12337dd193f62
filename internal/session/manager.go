// Package session owns the active conversation: its identifier lifecycle
// (new and unsaved until the backend confirms the first turn), its
// append-only message log, and the send/resume/reset transitions. It is the
// boundary that turns every transport failure into a chat-visible notice;
// nothing below it is rendered to the user.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/qmuntal/stateless"

	"github.com/chatadmision/admitchat/internal/api"
	"github.com/chatadmision/admitchat/internal/chat"
	"github.com/chatadmision/admitchat/internal/logger"
)

// Fixed user-facing texts. The welcome variant depends on backend health at
// mount time; the notices replace answers on degraded or failed turns.
const (
	WelcomeOnline  = "¡Hola! Soy el asistente de admisión. Pregúntame lo que quieras sobre el proceso de admisión."
	WelcomeOffline = "El asistente está en modo limitado: el servicio de respuestas no está disponible en este momento."
	OfflineNotice  = "El sistema no está disponible en este momento. Por favor intenta de nuevo más tarde."
	ErrorNotice    = "Ocurrió un error al procesar tu pregunta. Por favor intenta de nuevo."
)

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrBusy          = errors.New("a send is already in flight")
	ErrNotActive     = errors.New("session is not active")
)

// Backend is the slice of the API client the manager uses.
type Backend interface {
	Chat(ctx context.Context, question, conversationID string) (api.ChatResponse, error)
	Conversation(ctx context.Context, id string) (api.ConversationWithMessages, error)
}

// HealthChecker reports backend reachability. Consulted before every send.
type HealthChecker interface {
	Check(ctx context.Context) bool
}

// Recorder receives confirmed turns, e.g. the local transcript mirror.
type Recorder interface {
	Record(conversationID string, msgs ...chat.Message)
}

// Hooks are the manager's outbound signals. All fields are optional. They
// are invoked outside the manager's lock, after the log mutation they report.
type Hooks struct {
	// SessionCreated fires exactly once, when the first successful answer
	// confirms a conversation id. Callers use it to refresh the history list.
	SessionCreated func(id string)
	// MessageSent fires after every confirmed turn, first or not.
	MessageSent func(id string)
	// Notice surfaces a transient error notification.
	Notice func(text string)
}

// Manager is the conversation session state machine.
type Manager struct {
	backend Backend
	health  HealthChecker

	// Configure before Init; not safe to change afterwards.
	Hooks        Hooks
	Recorder     Recorder
	OfflineDelay time.Duration

	now func() time.Time

	mu         sync.Mutex
	fsm        *stateless.StateMachine
	session    chat.Session
	healthy    bool
	generation uint64
	inFlight   bool
}

// New creates a Manager in the Uninitialized state. Call Init before use.
func New(backend Backend, health HealthChecker) *Manager {
	return &Manager{
		backend: backend,
		health:  health,
		now:     time.Now,
		fsm:     newFSM(),
	}
}

// Init mounts the session: checks health once, synthesizes the welcome
// message, and either starts a fresh session or resumes resumeID. A failed
// resume falls back to a fresh session and returns the error so the caller
// can surface it.
func (m *Manager) Init(ctx context.Context, resumeID string) error {
	m.mu.Lock()
	if err := m.fsm.Fire(TriggerMount); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	healthy := m.health.Check(ctx)

	m.mu.Lock()
	m.healthy = healthy
	if resumeID == "" {
		m.resetLocked()
		err := m.fsm.Fire(TriggerNewReady)
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	return m.Resume(ctx, resumeID)
}

// Resume fetches a prior session's full log and replaces the local one
// wholesale, prefixed by a freshly synthesized welcome message. Not-found or
// any other error falls back to a fresh new-session state and is returned.
func (m *Manager) Resume(ctx context.Context, id string) error {
	m.mu.Lock()
	if err := m.fsm.Fire(TriggerResumeRequested); err != nil {
		m.mu.Unlock()
		return err
	}
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	conv, fetchErr := m.backend.Conversation(ctx, id)
	healthy := m.health.Check(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		// A newer action replaced this resume; drop the response.
		logger.L.Debug("discarding stale resume response", "conversation_id", id)
		return nil
	}
	m.healthy = healthy

	if fetchErr != nil {
		if err := m.fsm.Fire(TriggerResumeFailed); err != nil {
			return err
		}
		m.resetLocked()
		return fmt.Errorf("resume conversation %s: %w", id, fetchErr)
	}

	msgs := []chat.Message{chat.NewNotice(m.welcomeLocked(), m.now())}
	for _, turn := range conv.Messages {
		msgs = append(msgs, chat.FromServerTurn(turn)...)
	}
	m.session = chat.Session{
		ID:        conv.ID,
		Title:     conv.Title,
		Messages:  msgs,
		CreatedAt: chat.ParseTime(conv.CreatedAt),
		UpdatedAt: chat.ParseTime(conv.UpdatedAt),
	}
	return m.fsm.Fire(TriggerResumeSucceeded)
}

// Send runs one question/answer turn. The user's message is appended before
// any network work; after the call resolves, exactly one assistant entry
// follows it: the real answer, the offline notice, or the error notice.
// Errors are returned only for precondition violations; turn failures are
// absorbed into the log per the error-handling contract.
func (m *Manager) Send(ctx context.Context, question string) error {
	q := strings.TrimSpace(question)
	if q == "" {
		return ErrEmptyQuestion
	}

	m.mu.Lock()
	if st := m.fsm.MustState(); st != StateActiveNew && st != StateActiveConfirmed {
		m.mu.Unlock()
		return ErrNotActive
	}
	if m.inFlight {
		m.mu.Unlock()
		return ErrBusy
	}
	m.inFlight = true
	gen := m.generation
	userMsg := chat.NewUserMessage(q, m.now())
	m.session.Append(userMsg)
	convID := m.session.ID
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight = false
		m.mu.Unlock()
	}()

	healthy := m.health.Check(ctx)
	m.mu.Lock()
	m.healthy = healthy
	m.mu.Unlock()

	if !healthy {
		// Degraded mode: no call to the chat endpoint. The short pause keeps
		// the notice from landing before the user's own message renders.
		if m.OfflineDelay > 0 {
			select {
			case <-time.After(m.OfflineDelay):
			case <-ctx.Done():
			}
		}
		m.mu.Lock()
		if m.generation == gen {
			m.session.Append(chat.NewNotice(OfflineNotice, m.now()))
		}
		m.mu.Unlock()
		return nil
	}

	resp, err := m.backend.Chat(ctx, q, convID)

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		logger.L.Debug("discarding stale chat response", "conversation_id", convID)
		return nil
	}
	if err != nil {
		logger.L.Error("chat request failed", "conversation_id", convID, "error", err)
		m.session.Append(chat.NewNotice(ErrorNotice, m.now()))
		m.mu.Unlock()
		if m.Hooks.Notice != nil {
			m.Hooks.Notice(ErrorNotice)
		}
		return nil
	}

	created := false
	if !m.session.Confirmed() {
		m.session.ID = resp.ConversationID
		if ferr := m.fsm.Fire(TriggerFirstTurnConfirmed); ferr != nil {
			logger.L.Warn("fsm fire error", "error", ferr)
		}
		created = true
	}
	answer := chat.FromServerAnswer(resp.Message)
	m.session.Append(answer)
	if answer.Timestamp.IsZero() {
		m.session.UpdatedAt = m.now()
	} else {
		m.session.UpdatedAt = answer.Timestamp
	}
	id := m.session.ID
	m.mu.Unlock()

	if m.Recorder != nil {
		m.Recorder.Record(id, userMsg, answer)
	}
	if created && m.Hooks.SessionCreated != nil {
		m.Hooks.SessionCreated(id)
	}
	if m.Hooks.MessageSent != nil {
		m.Hooks.MessageSent(id)
	}
	return nil
}

// NewChat clears the identifier and message log and synthesizes a fresh
// welcome. The prior session is not deleted server-side.
func (m *Manager) NewChat() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fsm.Fire(TriggerNewChat); err != nil {
		return err
	}
	m.generation++
	m.resetLocked()
	return nil
}

// HandleDeleted coordinates with the history index: when the deleted id is
// the active session's, force the new-session transition. Deleting any other
// session leaves the active one untouched.
func (m *Manager) HandleDeleted(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" || id != m.session.ID {
		return nil
	}
	if err := m.fsm.Fire(TriggerActiveDeleted); err != nil {
		return err
	}
	m.generation++
	m.resetLocked()
	return nil
}

// resetLocked replaces the session with a fresh unconfirmed one. Caller
// holds the lock.
func (m *Manager) resetLocked() {
	now := m.now()
	m.session = chat.Session{
		Messages:  []chat.Message{chat.NewNotice(m.welcomeLocked(), now)},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (m *Manager) welcomeLocked() string {
	if m.healthy {
		return WelcomeOnline
	}
	return WelcomeOffline
}

// SessionID returns the backend identifier, or "" while unconfirmed.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.ID
}

// Messages returns a copy of the log.
func (m *Manager) Messages() []chat.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]chat.Message, len(m.session.Messages))
	copy(out, m.session.Messages)
	return out
}

// SetHealthy records a health observation made elsewhere, e.g. by the
// background poller. It does not touch the log.
func (m *Manager) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = healthy
}

// Healthy returns the last observed health state.
func (m *Manager) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

// InFlight reports whether a send is awaiting its answer.
func (m *Manager) InFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

// State exposes the current lifecycle state.
func (m *Manager) State() FSMState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fsm.MustState().(FSMState)
}
