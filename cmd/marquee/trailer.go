package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/marquee/internal/tmdb"
)

var trailerCmd = &cobra.Command{
	Use:   "trailer <title|id>...",
	Short: "Print a movie's trailer URL",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTrailerCmd,
}

func init() {
	rootCmd.AddCommand(trailerCmd)
}

func runTrailerCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		if !a.tmdb.Enabled() {
			return errors.New("trailers need tmdb.api_key in the config")
		}
		m, err := a.resolver().resolve(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}

		url, err := a.tmdb.Trailer(ctx, m.ID)
		if errors.Is(err, tmdb.ErrNoTrailer) {
			fmt.Printf("No trailer for %s\n", movieLabel(m))
			return nil
		}
		if err != nil {
			return fmt.Errorf("trailer: %w", err)
		}

		if jsonOutput {
			return printJSON(os.Stdout, map[string]any{"movie": m, "url": url})
		}
		fmt.Printf("%s\n%s\n", movieLabel(m), url)
		return nil
	})
}
