package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/marquee/internal/profile"
)

var moodCmd = &cobra.Command{
	Use:   "mood [mood]",
	Short: "Show or set your mood",
	Long: `Show or set the mood that steers recommendations.

Moods: happy, excited, relaxed, adventurous, romantic, mysterious`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: moodNames(),
	RunE:      runMoodCmd,
}

func init() {
	rootCmd.AddCommand(moodCmd)
}

func moodNames() []string {
	names := make([]string, len(profile.Moods))
	for i, m := range profile.Moods {
		names[i] = string(m)
	}
	return names
}

func runMoodCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		if len(args) == 1 {
			m, err := profile.ParseMood(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q (choose from %s)", err, args[0], joinOr(moodNames(), ""))
			}
			if err := a.profiles.SetMood(ctx, m); err != nil {
				return err
			}
		}

		p := a.profiles.Get()
		if jsonOutput {
			return printJSON(os.Stdout, map[string]any{"mood": p.Mood, "last_mood_update": p.LastMoodUpdate})
		}
		fmt.Printf("Mood: %s\n", p.Mood)
		return nil
	})
}
