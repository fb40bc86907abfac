// Package cli implements the pongctl command line client
package cli

import (
	"github.com/spf13/cobra"
)

var cfg Config

// NewRootCommand builds the pongctl command tree
func NewRootCommand() *cobra.Command {
	cfg = DefaultConfig()

	root := &cobra.Command{
		Use:   "pongctl",
		Short: "Client for the pong game coordinator",
		Long:  "pongctl speaks the coordinator's websocket protocol and REST API, for manual testing and operations.",
	}

	root.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "base URL of the coordinator")
	root.PersistentFlags().StringVar(&cfg.PlayerID, "player", cfg.PlayerID, "player id to authenticate as")
	root.PersistentFlags().StringVar(&cfg.Username, "username", cfg.Username, "display name")

	root.AddCommand(
		newHealthCommand(),
		newStatsCommand(),
		newCreateCommand(),
		newJoinCommand(),
		newInviteCommand(),
		newListenCommand(),
		newTournamentCommand(),
	)
	return root
}

// Execute runs the CLI
func Execute() error {
	return NewRootCommand().Execute()
}
