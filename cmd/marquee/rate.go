package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/marquee/internal/profile"
)

var rateCmd = &cobra.Command{
	Use:   "rate <title|id>... <like|dislike>",
	Short: "Like or dislike a movie",
	Long: `Like or dislike a movie. Giving a movie the rating it already has
clears it.

Examples:
  marquee rate inception like
  marquee rate 603 dislike`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRateCmd,
}

func init() {
	rootCmd.AddCommand(rateCmd)
}

func parseRating(s string) (profile.Rating, error) {
	switch strings.ToLower(s) {
	case "like", "up", "+":
		return profile.Like, nil
	case "dislike", "down", "-":
		return profile.Dislike, nil
	default:
		return profile.Neutral, fmt.Errorf("rating must be like or dislike, got %q", s)
	}
}

func runRateCmd(cmd *cobra.Command, args []string) error {
	rating, err := parseRating(args[len(args)-1])
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	return withApp(ctx, func(a *app) error {
		m, err := a.resolver().resolve(ctx, strings.Join(args[:len(args)-1], " "))
		if err != nil {
			return err
		}
		result, err := a.profiles.Rate(ctx, m.ID, rating)
		if err != nil {
			return fmt.Errorf("rate: %w", err)
		}

		if jsonOutput {
			return printJSON(os.Stdout, map[string]any{"movie": m, "rating": result.String()})
		}
		if result == profile.Neutral {
			fmt.Printf("Cleared rating for %s\n", movieLabel(m))
		} else {
			fmt.Printf("Marked %s as %s\n", movieLabel(m), result)
		}
		return nil
	})
}
