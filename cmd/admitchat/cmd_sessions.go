package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chatadmision/admitchat/internal/chat"
	"github.com/chatadmision/admitchat/internal/history"
)

var searchQuery string

func init() {
	sessionsCmd.Flags().StringVar(&searchQuery, "search", "", "filter by title or recency label")
	rootCmd.AddCommand(sessionsCmd, deleteCmd)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List past conversations grouped by recency",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		index := history.New(client)
		convs, err := index.List(context.Background())
		if err != nil {
			return err
		}
		convs = index.Search(convs, searchQuery)
		if len(convs) == 0 {
			fmt.Println("No hay conversaciones.")
			return nil
		}

		groups := index.GroupByRecency(convs)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, bucket := range history.Buckets {
			list := groups[bucket]
			if len(list) == 0 {
				continue
			}
			fmt.Fprintf(w, "%s\n", bucket)
			for _, c := range list {
				fmt.Fprintf(w, "  %s\t%s\t%d mensajes\t%s\n",
					c.ID, index.DisplayTitle(c), c.MessageCount,
					index.RecencyLabel(chat.ParseTime(c.UpdatedAt)))
			}
		}
		return w.Flush()
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index := history.New(client)
		if err := index.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Println("Conversación eliminada.")
		return nil
	},
}
