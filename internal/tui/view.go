package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chatadmision/admitchat/internal/api"
	"github.com/chatadmision/admitchat/internal/chat"
	"github.com/chatadmision/admitchat/internal/history"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("35"))
	sourceStyle    = lipgloss.NewStyle().Faint(true)
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	offlineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	bucketStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	selectedStyle  = lipgloss.NewStyle().Reverse(true)
	helpStyle      = lipgloss.NewStyle().Faint(true)
)

// View renders the current screen.
func (m *Model) View() string {
	if !m.ready {
		return "cargando..."
	}
	if m.view == viewHistory {
		return m.historyView()
	}
	return m.chatView()
}

func (m *Model) chatView() string {
	var b strings.Builder

	header := titleStyle.Render("ChatAdmisión")
	if !m.manager.Healthy() {
		header += " " + offlineStyle.Render("● sin conexión")
	}
	b.WriteString(header + "\n")
	b.WriteString(m.vp.View() + "\n")

	if m.sending {
		b.WriteString(m.spin.View() + " pensando...\n")
	} else if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString(m.input.View() + "\n")
	b.WriteString(helpStyle.Render("enter enviar · ctrl+n nuevo chat · ctrl+h historial · ctrl+c salir"))
	return b.String()
}

func (m *Model) historyView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Historial de chat") + "\n")
	b.WriteString(m.search.View() + "\n\n")

	if m.loading {
		b.WriteString(m.spin.View() + " cargando conversaciones...\n")
	} else if len(m.filtered) == 0 {
		b.WriteString(helpStyle.Render("No hay conversaciones") + "\n")
	} else {
		groups := m.index.GroupByRecency(m.filtered)
		for _, bucket := range bucketOrder() {
			convs := groups[bucket]
			if len(convs) == 0 {
				continue
			}
			b.WriteString(bucketStyle.Render(bucket) + "\n")
			for _, c := range convs {
				line := fmt.Sprintf("  %s · %d mensajes · %s",
					m.index.DisplayTitle(c), c.MessageCount, m.index.RecencyLabel(chat.ParseTime(c.UpdatedAt)))
				if idxOf(m.filtered, c.ID) == m.cursor {
					line = selectedStyle.Render(line)
				}
				b.WriteString(line + "\n")
			}
		}
	}

	if m.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(m.notice))
	}
	b.WriteString("\n" + helpStyle.Render("enter retomar · ctrl+d eliminar · esc volver"))
	return b.String()
}

// refreshViewport re-renders the message log into the viewport and scrolls
// to the bottom.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for _, msg := range m.manager.Messages() {
		b.WriteString(renderMessage(msg))
	}
	m.vp.SetContent(b.String())
	m.vp.GotoBottom()
}

func renderMessage(msg chat.Message) string {
	var b strings.Builder
	switch msg.Role {
	case chat.RoleUser:
		b.WriteString(userStyle.Render("Tú") + "  " + msg.Content + "\n")
	default:
		b.WriteString(assistantStyle.Render("Asistente") + "  " + msg.Content + "\n")
		if len(msg.Sources) > 0 {
			b.WriteString(sourceStyle.Render("  Fuentes: "+strings.Join(msg.Sources, ", ")) + "\n")
		}
		if msg.Enhanced != nil && msg.Enhanced.Confidence != nil {
			b.WriteString(sourceStyle.Render(fmt.Sprintf("  Confianza: %s (%.2f)",
				msg.Enhanced.Confidence.Level, msg.Enhanced.Confidence.Score)) + "\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func idxOf(convs []api.Conversation, id string) int {
	for i, c := range convs {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func bucketOrder() []string { return history.Buckets }
