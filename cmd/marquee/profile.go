package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/marquee/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit your profile",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Edit your profile",
	Long: `Edit profile fields. Only the flags given are changed.

Examples:
  marquee profile set --name Sam --age 31
  marquee profile set --safe-mode --language en,fr`,
	Args: cobra.NoArgs,
	RunE: runProfileSet,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)

	f := profileSetCmd.Flags()
	f.String("name", "", "Display name")
	f.String("age", "", "Age in years")
	f.Bool("safe-mode", false, "Hide adult titles")
	f.String("region", "", "Two-letter country code")
	f.StringSlice("language", nil, "Language codes to include")
	f.String("picture", "", "Profile picture URL")
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		p := a.profiles.Get()
		if jsonOutput {
			return printJSON(os.Stdout, p)
		}
		printProfile(p)
		return nil
	})
}

func printProfile(p profile.Profile) {
	fmt.Printf("Name:       %s\n", p.Name)
	fmt.Printf("Age:        %d\n", p.Age)
	fmt.Printf("Region:     %s\n", p.Region)
	fmt.Printf("Languages:  %s\n", joinOr(p.Language, "-"))
	fmt.Printf("Safe mode:  %t\n", p.SafeMode)
	fmt.Printf("Mood:       %s\n", p.Mood)
	fmt.Printf("Watchlist:  %d movies\n", len(p.Watchlist))
	fmt.Printf("Liked:      %d\n", len(p.LikedMovies))
	fmt.Printf("Disliked:   %d\n", len(p.DislikedMovies))
	fmt.Printf("History:    %d\n", len(p.History))
	fmt.Printf("User ID:    %s\n", p.UserID)
}

// profileForm collects the flags that were set.
func profileForm(cmd *cobra.Command) profile.Form {
	var form profile.Form
	flags := cmd.Flags()
	if flags.Changed("name") {
		v, _ := flags.GetString("name")
		form.Name = &v
	}
	if flags.Changed("age") {
		v, _ := flags.GetString("age")
		form.Age = &v
	}
	if flags.Changed("safe-mode") {
		v, _ := flags.GetBool("safe-mode")
		form.SafeMode = &v
	}
	if flags.Changed("region") {
		v, _ := flags.GetString("region")
		form.Region = &v
	}
	if flags.Changed("language") {
		v, _ := flags.GetStringSlice("language")
		if v == nil {
			v = []string{}
		}
		form.Languages = v
	}
	if flags.Changed("picture") {
		v, _ := flags.GetString("picture")
		form.ProfilePic = &v
	}
	return form
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	form := profileForm(cmd)
	ctx := cmd.Context()

	return withApp(ctx, func(a *app) error {
		if err := a.profiles.Update(ctx, form); err != nil {
			var verr *profile.ValidationError
			if errors.As(err, &verr) {
				return fmt.Errorf("invalid profile:\n  - %s", strings.Join(verr.Problems, "\n  - "))
			}
			return err
		}
		p := a.profiles.Get()
		if jsonOutput {
			return printJSON(os.Stdout, p)
		}
		fmt.Println("Profile updated")
		printProfile(p)
		return nil
	})
}
