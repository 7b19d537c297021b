package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/marquee/internal/movie"
)

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show trending movies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListCmd(cmd, "Trending", func(ctx context.Context, a *app, limit int) ([]movie.Movie, error) {
			return a.session.Trending(ctx, limit)
		})
	},
}

var topRatedCmd = &cobra.Command{
	Use:   "top-rated",
	Short: "Show the highest rated movies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListCmd(cmd, "Top rated", func(ctx context.Context, a *app, limit int) ([]movie.Movie, error) {
			return a.session.TopRated(ctx, limit)
		})
	},
}

func init() {
	rootCmd.AddCommand(trendingCmd)
	rootCmd.AddCommand(topRatedCmd)
	trendingCmd.Flags().IntP("limit", "n", 12, "Number of movies to show")
	topRatedCmd.Flags().IntP("limit", "n", 12, "Number of movies to show")
}

func runListCmd(cmd *cobra.Command, heading string, fetch func(context.Context, *app, int) ([]movie.Movie, error)) error {
	limit, _ := cmd.Flags().GetInt("limit")

	return withApp(cmd.Context(), func(a *app) error {
		movies, err := fetch(cmd.Context(), a, limit)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", strings.ToLower(heading), err)
		}

		if jsonOutput {
			return printJSON(os.Stdout, movies)
		}
		if len(movies) == 0 {
			fmt.Println("No movies")
			return nil
		}
		fmt.Printf("%s (%d):\n\n", heading, len(movies))
		printMovieTable(os.Stdout, movies)
		return nil
	})
}
