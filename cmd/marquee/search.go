package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search movies and show related recommendations",
	Long: `Search movies by title.

The top result is added to your history and recommendations seeded by it
are shown below the results.

Examples:
  marquee search inception
  marquee search "the dark knight"
  marquee --json search matrix`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearchCmd,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	return withApp(cmd.Context(), func(a *app) error {
		return a.session.Search(cmd.Context(), query)
	})
}
