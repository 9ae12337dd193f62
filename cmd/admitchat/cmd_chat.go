package main

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chatadmision/admitchat/internal/health"
	"github.com/chatadmision/admitchat/internal/history"
	"github.com/chatadmision/admitchat/internal/logger"
	"github.com/chatadmision/admitchat/internal/session"
	"github.com/chatadmision/admitchat/internal/transcript"
	"github.com/chatadmision/admitchat/internal/tui"
)

var resumeID string

func init() {
	chatCmd.Flags().StringVar(&resumeID, "resume", "", "conversation id to resume")
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the chat screen",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The TUI owns the terminal; keep structured logs out of its way.
		if f, err := os.OpenFile("admitchat.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			logger.SetOutput(f)
			defer f.Close()
		} else {
			logger.SetOutput(io.Discard)
		}

		monitor := health.NewMonitor(client)
		manager := session.New(client, monitor)
		manager.OfflineDelay = cfg.Chat.OfflineDelay

		mirror := transcript.NewStore(cfg.Transcript.Path)
		defer mirror.Close()
		manager.Recorder = mirror

		index := history.New(client)

		model := tui.New(manager, index, monitor, cfg.Chat.HealthPollInterval, resumeID)
		defer model.Close()

		prog := tea.NewProgram(model, tea.WithAltScreen())
		model.Attach(prog)
		_, err := prog.Run()
		return err
	},
}
