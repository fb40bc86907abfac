package cli

import (
	"github.com/spf13/cobra"

	"github.com/debsndprgs5/transcendence-game/internal/model"
	"github.com/debsndprgs5/transcendence-game/internal/protocol"
)

func newCreateCommand() *cobra.Command {
	var (
		mode  string
		win   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room and stream the session until the match ends",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cfg)
			if err != nil {
				return err
			}
			defer c.close()

			if err := c.send(&protocol.CreateRoom{
				Mode:         model.GameMode(mode),
				WinCondition: model.WinCondition(win),
				Limit:        limit,
			}); err != nil {
				return err
			}
			return c.stream(protocol.TypeEndMatch, protocol.TypeKicked)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(model.ModeTwoPlayer), "game mode (2p or 4p)")
	cmd.Flags().StringVar(&win, "win", string(model.WinByScore), "win condition (score or time)")
	cmd.Flags().IntVar(&limit, "limit", 5, "points for score mode, seconds for time mode")
	return cmd
}

func newJoinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "join <gameID>",
		Short: "Join a room and stream the session until the match ends",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cfg)
			if err != nil {
				return err
			}
			defer c.close()

			if err := c.send(&protocol.JoinGame{GameID: model.GameID(args[0])}); err != nil {
				return err
			}
			return c.stream(protocol.TypeEndMatch, protocol.TypeKicked)
		},
	}
}

func newInviteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "invite <targetPlayerID> <gameID>",
		Short: "Invite a player to a game and wait for their reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cfg)
			if err != nil {
				return err
			}
			defer c.close()

			if err := c.send(&protocol.Invite{
				Action:   protocol.InviteActionSend,
				TargetID: model.PlayerID(args[0]),
				GameID:   model.GameID(args[1]),
			}); err != nil {
				return err
			}
			return c.stream(protocol.TypeInvite, protocol.TypeKicked)
		},
	}
}

func newListenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Connect and print every server message until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cfg)
			if err != nil {
				return err
			}
			defer c.close()
			return c.stream()
		},
	}
}
