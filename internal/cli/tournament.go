package cli

import (
	"github.com/spf13/cobra"

	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/protocol"
)

func newTournamentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tournament",
		Aliases: []string{"tour"},
		Short:   "Tournament operations",
	}
	cmd.AddCommand(
		newTournamentCreateCommand(),
		newTournamentJoinCommand(),
		newTournamentListCommand(),
		newTournamentRecordsCommand(),
	)
	return cmd
}

func newTournamentCreateCommand() *cobra.Command {
	var (
		name       string
		maxPlayers int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tournament and stream updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cfg)
			if err != nil {
				return err
			}
			defer c.close()

			if err := c.send(&protocol.JoinTournament{
				Name:       name,
				MaxPlayers: maxPlayers,
			}); err != nil {
				return err
			}
			return c.stream(protocol.TypeKicked)
		},
	}

	cmd.Flags().StringVar(&name, "name", "pongctl tournament", "tournament name")
	cmd.Flags().IntVar(&maxPlayers, "max", 4, "number of entrants")
	return cmd
}

func newTournamentJoinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "join <tournamentID>",
		Short: "Register in a tournament and stream updates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cfg)
			if err != nil {
				return err
			}
			defer c.close()

			if err := c.send(&protocol.JoinTournament{
				TournamentID: model.TournamentID(args[0]),
			}); err != nil {
				return err
			}
			return c.stream(protocol.TypeKicked)
		},
	}
}

func newTournamentListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live tournaments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(cfg, "/api/v1/tournaments")
		},
	}
}

func newTournamentRecordsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "List completed tournament records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(cfg, "/api/v1/tournaments/records")
		},
	}
}
