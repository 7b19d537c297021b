package main

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List available languages",
	Args:  cobra.NoArgs,
	RunE:  runLanguagesCmd,
}

var languagesSetCmd = &cobra.Command{
	Use:   "set <code>...",
	Short: "Set the languages results are filtered to",
	Long: `Set the languages results are filtered to.

Examples:
  marquee languages set en
  marquee languages set en fr es`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLanguagesSetCmd,
}

func init() {
	rootCmd.AddCommand(languagesCmd)
	languagesCmd.AddCommand(languagesSetCmd)
}

func runLanguagesCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		if !a.tmdb.Enabled() {
			return errors.New("the language list needs tmdb.api_key in the config")
		}
		langs, err := a.tmdb.Languages(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch languages: %w", err)
		}

		if jsonOutput {
			return printJSON(os.Stdout, langs)
		}
		selected := a.profiles.Get().Language
		for _, l := range langs {
			marker := " "
			if slices.Contains(selected, l.Code) {
				marker = "*"
			}
			fmt.Printf(" %s %-4s %s\n", marker, l.Code, l.Label())
		}
		return nil
	})
}

func runLanguagesSetCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		if err := a.profiles.SetLanguages(ctx, args); err != nil {
			return err
		}
		langs := a.profiles.Get().Language
		if jsonOutput {
			return printJSON(os.Stdout, langs)
		}
		fmt.Printf("Languages: %s\n", joinOr(langs, "-"))
		return nil
	})
}
