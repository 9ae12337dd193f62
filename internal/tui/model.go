// Package tui is the terminal chat screen: a message viewport, an input
// line, and a session picker fed by the history index. All conversation
// state lives in the session manager; the model only holds view state.
package tui

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chatadmision/admitchat/internal/api"
	"github.com/chatadmision/admitchat/internal/health"
	"github.com/chatadmision/admitchat/internal/history"
	"github.com/chatadmision/admitchat/internal/session"
)

type view int

const (
	viewChat view = iota
	viewHistory
)

// Model is the bubbletea model for the chat screen.
type Model struct {
	manager *session.Manager
	index   *history.Index
	poller  *health.Poller

	view     view
	input    textinput.Model
	search   textinput.Model
	vp       viewport.Model
	spin     spinner.Model
	width    int
	height   int
	ready    bool
	sending  bool
	loading  bool
	notice   string
	resumeID string

	convs    []api.Conversation
	filtered []api.Conversation
	cursor   int

	// Delivers messages into the running program; set by Attach. Manager
	// hooks run on the send goroutine, outside the update loop.
	notify func(tea.Msg)

	// Set by manager hooks (send goroutine); read when the picker opens.
	historyDirty atomic.Bool
}

type (
	initDoneMsg   struct{ err error }
	sendDoneMsg   struct{ err error }
	resumeDoneMsg struct{ err error }
	deleteDoneMsg struct {
		id  string
		err error
	}
	historyMsg struct {
		convs []api.Conversation
		err   error
	}
	noticeMsg      struct{ text string }
	clearNoticeMsg struct{}
	refreshMsg     struct{}
)

// New creates the chat screen. resumeID, when non-empty, resumes that
// session on mount. pollInterval of zero disables the background health
// poller.
func New(manager *session.Manager, index *history.Index, monitor *health.Monitor, pollInterval time.Duration, resumeID string) *Model {
	in := textinput.New()
	in.Placeholder = "Pregúntame sobre el proceso de admisión..."
	in.Focus()
	in.CharLimit = 2000

	search := textinput.New()
	search.Placeholder = "Buscar conversaciones..."

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		manager:  manager,
		index:    index,
		input:    in,
		search:   search,
		spin:     sp,
		resumeID: resumeID,
	}

	manager.Hooks = session.Hooks{
		SessionCreated: func(string) { m.historyDirty.Store(true) },
		MessageSent:    func(string) { m.historyDirty.Store(true) },
		Notice: func(text string) {
			if m.notify != nil {
				m.notify(noticeMsg{text: text})
			}
		},
	}
	index.Deleted = func(id string) { _ = manager.HandleDeleted(id) }

	if pollInterval > 0 {
		m.poller = health.NewPoller(monitor, pollInterval, func(healthy bool) {
			manager.SetHealthy(healthy)
		})
	}
	return m
}

// Attach connects the running program so manager hooks can deliver messages
// into the update loop. Call before Run.
func (m *Model) Attach(p *tea.Program) {
	m.notify = p.Send
}

// Init mounts the session manager off the UI loop.
func (m *Model) Init() tea.Cmd {
	if m.poller != nil {
		m.poller.Start()
	}
	resumeID := m.resumeID
	return tea.Batch(
		textinput.Blink,
		func() tea.Msg {
			return initDoneMsg{err: m.manager.Init(context.Background(), resumeID)}
		},
	)
}

// Close tears down the background poller.
func (m *Model) Close() {
	if m.poller != nil {
		m.poller.Stop()
	}
}

// Update handles UI events.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		m.search.Width = msg.Width - 4
		m.vp = viewport.New(msg.Width, msg.Height-5)
		m.ready = true
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case initDoneMsg:
		if msg.err != nil {
			m.notice = "No se pudo retomar la conversación; iniciando una nueva."
		}
		m.refreshViewport()
		return m, m.expireNotice()

	case sendDoneMsg:
		m.sending = false
		m.refreshViewport()
		return m, nil

	case resumeDoneMsg:
		m.loading = false
		m.view = viewChat
		if msg.err != nil {
			m.notice = "No se pudo cargar la conversación; iniciando una nueva."
		}
		m.refreshViewport()
		return m, m.expireNotice()

	case deleteDoneMsg:
		if msg.err != nil {
			m.notice = "Error al eliminar la conversación."
			return m, m.expireNotice()
		}
		return m, m.loadHistory()

	case historyMsg:
		m.loading = false
		if msg.err != nil {
			m.notice = "Error al cargar conversaciones."
			return m, m.expireNotice()
		}
		m.convs = msg.convs
		m.applyFilter()
		return m, nil

	case noticeMsg:
		m.notice = msg.text
		return m, m.expireNotice()

	case clearNoticeMsg:
		m.notice = ""
		return m, nil

	case refreshMsg:
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.sending || m.loading {
			return m, cmd
		}
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.Close()
		return m, tea.Quit

	case "esc":
		if m.view == viewHistory {
			m.view = viewChat
			return m, nil
		}
		m.Close()
		return m, tea.Quit

	case "ctrl+n":
		if m.view == viewChat && !m.sending {
			_ = m.manager.NewChat()
			m.refreshViewport()
		}
		return m, nil

	case "ctrl+h":
		if m.view == viewChat {
			m.view = viewHistory
			m.cursor = 0
			m.search.Reset()
			m.search.Focus()
			m.input.Blur()
			// Re-fetch only when a turn landed since the last load.
			if m.convs == nil || m.historyDirty.Load() {
				m.loading = true
				return m, tea.Batch(m.loadHistory(), m.spin.Tick)
			}
			m.applyFilter()
			return m, nil
		}
		m.view = viewChat
		m.input.Focus()
		return m, nil

	case "enter":
		if m.view == viewHistory {
			return m, m.resumeSelected()
		}
		return m, m.send()

	case "up", "down":
		if m.view == viewHistory {
			if msg.String() == "up" && m.cursor > 0 {
				m.cursor--
			}
			if msg.String() == "down" && m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil
		}

	case "ctrl+d":
		if m.view == viewHistory {
			return m, m.deleteSelected()
		}
	}

	return m.updateInputs(msg)
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == viewHistory {
		m.search, cmd = m.search.Update(msg)
		m.applyFilter()
		return m, cmd
	}
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send runs the turn on its own goroutine. The single-flight guard lives
// here, at the UI layer: a second enter while one is in flight is ignored.
func (m *Model) send() tea.Cmd {
	if m.sending {
		return nil
	}
	question := m.input.Value()
	if question == "" {
		return nil
	}
	m.input.Reset()
	m.sending = true

	cmd := func() tea.Msg {
		return sendDoneMsg{err: m.manager.Send(context.Background(), question)}
	}
	// Send appends the optimistic user message before its network call; the
	// delayed refresh repaints so the question shows while the answer is
	// still in flight.
	return tea.Batch(cmd, m.spin.Tick, tea.Tick(30*time.Millisecond, func(time.Time) tea.Msg {
		return refreshMsg{}
	}))
}

func (m *Model) loadHistory() tea.Cmd {
	m.historyDirty.Store(false)
	return func() tea.Msg {
		convs, err := m.index.List(context.Background())
		return historyMsg{convs: convs, err: err}
	}
}

func (m *Model) resumeSelected() tea.Cmd {
	if m.cursor >= len(m.filtered) {
		return nil
	}
	id := m.filtered[m.cursor].ID
	m.loading = true
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		return resumeDoneMsg{err: m.manager.Resume(context.Background(), id)}
	})
}

func (m *Model) deleteSelected() tea.Cmd {
	if m.cursor >= len(m.filtered) {
		return nil
	}
	id := m.filtered[m.cursor].ID
	return func() tea.Msg {
		return deleteDoneMsg{id: id, err: m.index.Delete(context.Background(), id)}
	}
}

func (m *Model) applyFilter() {
	m.filtered = m.index.Search(m.convs, m.search.Value())
	if m.cursor >= len(m.filtered) {
		m.cursor = 0
	}
}

func (m *Model) expireNotice() tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return clearNoticeMsg{}
	})
}
