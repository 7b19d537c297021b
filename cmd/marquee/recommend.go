package main

import (
	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommendations from your mood, ratings and watchlist",
	Args:  cobra.NoArgs,
	RunE:  runRecommendCmd,
}

func init() {
	rootCmd.AddCommand(recommendCmd)
}

func runRecommendCmd(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		return a.session.RefreshRecommendations(cmd.Context())
	})
}
