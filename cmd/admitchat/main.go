package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chatadmision/admitchat/internal/api"
	"github.com/chatadmision/admitchat/internal/config"
	"github.com/chatadmision/admitchat/internal/logger"
)

var (
	cfg    *config.Config
	client *api.Client
)

var rootCmd = &cobra.Command{
	Use:           "admitchat",
	Short:         "Terminal client for the ChatAdmisión admissions assistant",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.SetLevel(cfg.Log.Level)
		client = api.New(cfg.API)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		switch {
		case errors.Is(err, api.ErrAuthRequired):
			fmt.Fprintln(os.Stderr, "No has iniciado sesión. Ejecuta: admitchat login <usuario>")
		case errors.Is(err, api.ErrForbidden):
			fmt.Fprintln(os.Stderr, "No tienes permisos para esta operación.")
		default:
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
