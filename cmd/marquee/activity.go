package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/marquee/internal/events"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show recent activity",
	Args:  cobra.NoArgs,
	RunE:  runActivityCmd,
}

// activityTypes maps --type values to event types.
var activityTypes = map[string]string{
	"profile":         events.EventProfileChanged,
	"search":          events.EventSearchCompleted,
	"recommendations": events.EventRecommendationsApplied,
	"failed":          events.EventRequestFailed,
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	activityCmd.Flags().StringSliceP("type", "t", nil, "Only show these kinds (profile, search, recommendations, failed)")
	activityCmd.Flags().Duration("summary", 0, "Count events per type over this window instead of listing them")
}

func parseActivityTypes(kinds []string) ([]string, error) {
	types := make([]string, 0, len(kinds))
	for _, k := range kinds {
		t, ok := activityTypes[strings.ToLower(strings.TrimSpace(k))]
		if !ok {
			return nil, fmt.Errorf("unknown activity type %q", k)
		}
		types = append(types, t)
	}
	return types, nil
}

func runActivityCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	kinds, _ := cmd.Flags().GetStringSlice("type")
	window, _ := cmd.Flags().GetDuration("summary")
	ctx := cmd.Context()

	types, err := parseActivityTypes(kinds)
	if err != nil {
		return err
	}

	return withApp(ctx, func(a *app) error {
		if window > 0 {
			return printActivitySummary(a, cmd, window)
		}

		raw, err := a.events.Recent(ctx, limit, types...)
		if err != nil {
			return fmt.Errorf("failed to fetch activity: %w", err)
		}

		if jsonOutput {
			return printJSON(os.Stdout, raw)
		}
		if len(raw) == 0 {
			fmt.Println("No activity")
			return nil
		}

		reg := events.DefaultRegistry()
		fmt.Printf("Recent activity (%d):\n\n", len(raw))
		fmt.Printf("  %-10s %-24s %s\n", "TIME", "TYPE", "DETAIL")
		fmt.Println("  " + strings.Repeat("-", 60))
		for _, r := range raw {
			fmt.Printf("  %-10s %-24s %s\n", formatTimeAgo(r.OccurredAt, time.Now()), r.EventType, eventDetail(reg, r))
		}
		return nil
	})
}

func printActivitySummary(a *app, cmd *cobra.Command, window time.Duration) error {
	counts, err := a.events.Counts(cmd.Context(), time.Now().Add(-window))
	if err != nil {
		return fmt.Errorf("failed to count activity: %w", err)
	}
	if jsonOutput {
		return printJSON(os.Stdout, counts)
	}

	fmt.Printf("Activity over the last %s:\n\n", window)
	for _, t := range events.DefaultRegistry().Types() {
		fmt.Printf("  %-24s %d\n", t, counts[t])
	}
	return nil
}

func eventDetail(reg *events.Registry, raw events.RawEvent) string {
	e, err := reg.Unmarshal(raw)
	if err != nil {
		return fmt.Sprintf("%s/%d", raw.EntityType, raw.EntityID)
	}
	if s, ok := e.(events.Summarizer); ok {
		return s.Summary()
	}
	return fmt.Sprintf("%s/%d", raw.EntityType, raw.EntityID)
}

func formatTimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
