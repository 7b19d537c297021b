package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/marquee/internal/movie"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently searched movies",
	Args:  cobra.NoArgs,
	RunE:  runHistoryCmd,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Number of entries to show")
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	ctx := cmd.Context()

	return withApp(ctx, func(a *app) error {
		p := a.profiles.Get()
		ids := p.History
		if limit > 0 && len(ids) > limit {
			ids = ids[:limit]
		}

		entries := make([]movie.Movie, len(ids))
		for i, id := range ids {
			entries[i] = movie.Movie{ID: id}
		}
		// Titles come from the metadata service when it is configured.
		if a.tmdb.Enabled() {
			filled, err := a.enricher.Backfill(ctx, entries)
			if err != nil {
				return err
			}
			entries = filled
		}

		if jsonOutput {
			return printJSON(os.Stdout, entries)
		}
		if len(entries) == 0 {
			fmt.Println("No history")
			return nil
		}
		fmt.Printf("History (%d of %d):\n\n", len(entries), len(p.History))
		printMovieTable(os.Stdout, entries)
		return nil
	})
}
