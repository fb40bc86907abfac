package cli

import "github.com/spf13/cobra"

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check coordinator health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(cfg, "/api/v1/health")
		},
	}
}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show live coordinator counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(cfg, "/api/v1/stats")
		},
	}
}
