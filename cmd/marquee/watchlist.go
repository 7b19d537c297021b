package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Show your watchlist",
	Args:  cobra.NoArgs,
	RunE:  runWatchlistCmd,
}

var watchlistToggleCmd = &cobra.Command{
	Use:   "toggle <title|id>...",
	Short: "Add a movie to the watchlist, or remove it if present",
	Long: `Add a movie to the watchlist, or remove it if it is already there.

The movie is given by TMDB id or by title. Titles are matched against the
watchlist first, then searched.

Examples:
  marquee watchlist toggle 27205
  marquee watchlist toggle "the matrix"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatchlistToggleCmd,
}

func init() {
	rootCmd.AddCommand(watchlistCmd)
	watchlistCmd.AddCommand(watchlistToggleCmd)
}

func runWatchlistCmd(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		p := a.profiles.Get()
		if jsonOutput {
			return printJSON(os.Stdout, p.Watchlist)
		}
		if len(p.Watchlist) == 0 {
			fmt.Println("Watchlist is empty")
			return nil
		}
		fmt.Printf("Watchlist (%d):\n\n", len(p.Watchlist))
		printMovieTable(os.Stdout, p.Watchlist)
		return nil
	})
}

func runWatchlistToggleCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		m, err := a.resolver().resolve(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		added, err := a.profiles.ToggleWatchlist(ctx, m)
		if err != nil {
			return fmt.Errorf("update watchlist: %w", err)
		}

		if jsonOutput {
			return printJSON(os.Stdout, map[string]any{"movie": m, "in_watchlist": added})
		}
		if added {
			fmt.Printf("Added %s to your watchlist\n", movieLabel(m))
		} else {
			fmt.Printf("Removed %s from your watchlist\n", movieLabel(m))
		}
		return nil
	})
}
