// cmd/cli/main.go inspects the bot's datastore offline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var storagePath string

	root := &cobra.Command{
		Use:          "tourney-cli",
		Short:        "Inspect and edit the tourney bot datastore",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&storagePath, "storage", envOr("STORAGE_PATH", "datastore.json"), "path to the datastore file")

	root.AddCommand(
		newTourneysCmd(&storagePath),
		newHistoryCmd(&storagePath),
		newGroupsCmd(&storagePath),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireGuild(guild string) error {
	if guild == "" {
		return fmt.Errorf("--guild is required")
	}
	return nil
}
