package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <text>...",
	Short: "Show title suggestions for partial input",
	Long: `Show the suggestions the search box would offer for partial input.

Up to three characters are matched against a built-in list of popular
titles; longer input is sent to the backend.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSuggestCmd,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}

func runSuggestCmd(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	return withApp(cmd.Context(), func(a *app) error {
		a.session.OnInput(text)

		wait := a.cfg.Session.SuggestionDelay + a.cfg.Backend.Timeout
		select {
		case <-a.view.updates:
		case <-time.After(wait):
			return fmt.Errorf("no suggestions after %s", wait)
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}

		if items, _ := a.session.Suggestions(); len(items) == 0 && !jsonOutput {
			fmt.Println("No suggestions")
		}
		return nil
	})
}
