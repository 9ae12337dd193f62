package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chatadmision/admitchat/internal/health"
)

var (
	sourceURL string
	userRole  string
)

func init() {
	uploadCmd.Flags().StringVar(&sourceURL, "source-url", "", "original URL of the document")
	usersCreateCmd.Flags().StringVar(&userRole, "role", "", "initial role (user or admin)")

	usersPromoteCmd = userActionCmd("promote", "Grant the admin role", "Rol de administrador concedido.",
		func(ctx context.Context, id string) error { return client.PromoteUser(ctx, id) })
	usersDemoteCmd = userActionCmd("demote", "Revoke the admin role", "Rol de administrador revocado.",
		func(ctx context.Context, id string) error { return client.DemoteUser(ctx, id) })
	usersActivateCmd = userActionCmd("activate", "Re-enable an account", "Cuenta activada.",
		func(ctx context.Context, id string) error { return client.ActivateUser(ctx, id) })
	usersDeactivateCmd = userActionCmd("deactivate", "Disable an account", "Cuenta desactivada.",
		func(ctx context.Context, id string) error { return client.DeactivateUser(ctx, id) })

	usersCmd.AddCommand(usersCreateCmd, usersPromoteCmd, usersDemoteCmd, usersActivateCmd, usersDeactivateCmd)
	rootCmd.AddCommand(uploadCmd, docsCmd, usersCmd, statsCmd, healthCmd)
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file.pdf>",
	Short: "Upload a PDF for ingestion (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := client.UploadPDF(context.Background(), filepath.Base(args[0]), f, sourceURL)
		if err != nil {
			return err
		}
		if res.IsNew {
			fmt.Printf("Documento %s ingresado (%d caracteres extraídos).\n", res.DocumentID, res.TextLength)
		} else {
			fmt.Printf("Documento %s ya existía.\n", res.DocumentID)
		}
		return nil
	},
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List ingested documents (admin only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := client.PDFStatistics(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Documentos: %d (%d subidos, %d rastreados; %d fallidos)\n",
			stats.TotalPDFs, stats.UploadedPDFs, stats.ScrapedPDFs, stats.ProcessingStatus.Failed)
		if len(stats.PDFSources) == 0 {
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, src := range stats.PDFSources {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", src.DocumentHash, src.Type, src.OriginalSource)
		}
		return w.Flush()
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts (admin only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := client.Users(context.Background())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, u := range users {
			state := "activo"
			if !u.IsActive {
				state = "inactivo"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role, state)
		}
		return w.Flush()
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create <username> <email> <password>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := client.CreateUser(context.Background(), args[0], args[1], args[2], userRole)
		if err != nil {
			return err
		}
		fmt.Printf("Usuario %s creado (%s).\n", user.Username, user.Role)
		return nil
	},
}

func userActionCmd(use, short, done string, action func(context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := action(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Println(done)
			return nil
		},
	}
}

var (
	usersPromoteCmd    *cobra.Command
	usersDemoteCmd     *cobra.Command
	usersActivateCmd   *cobra.Command
	usersDeactivateCmd *cobra.Command
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show answering-service usage statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		rag, err := client.RAGStats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Consultas totales: %d\n", rag.TotalQueries)
		fmt.Printf("Tiempo promedio: %.2fs\n", rag.AvgProcessingTime)
		for level, n := range rag.ConfidenceDistribution {
			fmt.Printf("  confianza %s: %d\n", level, n)
		}

		mem, err := client.MemoryStats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Conversaciones activas: %d\n", mem.ActiveConversations)
		fmt.Printf("Memorias totales: %d\n", mem.TotalMemories)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the backend is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if health.NewMonitor(client).Check(context.Background()) {
			fmt.Println("Servicio disponible.")
			return nil
		}
		fmt.Println("Servicio no disponible.")
		os.Exit(1)
		return nil
	},
}
