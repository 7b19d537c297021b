package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/marquee/internal/channel"
	"github.com/vmunix/marquee/internal/events"
	"github.com/vmunix/marquee/internal/profile"
	"github.com/vmunix/marquee/internal/session"
)

const shellHelp = `Type to see suggestions; each line is treated as the current contents of
the search box. Commands:

  /<query>        search now
  (empty line)    search for the highlighted suggestion or the input
  :up, :down      move the suggestion highlight
  :pick N         search for suggestion N
  :watch N        toggle movie N of the last list on the watchlist
  :like N         like movie N of the last list
  :dislike N      dislike movie N of the last list
  :mood NAME      set your mood
  :rec            refresh recommendations
  :stats          show live requests and cache sizes
  :help           show this help
  :quit           leave`

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive discovery with live suggestions",
	Long: "Interactive discovery with live suggestions.\n\n" + shellHelp +
		"\n\nThe metrics listener, when configured, runs while the shell is open.",
	Args: cobra.NoArgs,
	RunE: runShellCmd,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

// shellCommand is one parsed input line.
type shellCommand struct {
	name string // "input", "search", "confirm", or the word after ':'
	arg  string
}

func parseShellLine(line string) shellCommand {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return shellCommand{name: "confirm"}
	case strings.HasPrefix(trimmed, "/"):
		return shellCommand{name: "search", arg: strings.TrimSpace(trimmed[1:])}
	case strings.HasPrefix(trimmed, ":"):
		name, arg, _ := strings.Cut(trimmed[1:], " ")
		return shellCommand{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}
	default:
		return shellCommand{name: "input", arg: line}
	}
}

var errQuit = errors.New("quit")

func runShellCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return withApp(ctx, func(a *app) error {
		runErr := make(chan error, 1)
		go func() { runErr <- a.runner().Run(ctx) }()

		err := runShell(ctx, a, os.Stdin, os.Stdout)
		cancel()
		if rerr := <-runErr; rerr != nil && !errors.Is(rerr, context.Canceled) {
			a.log.Warn("background runner stopped", "error", rerr)
		}
		return err
	})
}

func runShell(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	p := a.profiles.Get()
	fmt.Fprintf(out, "Hi %s. Start typing to search, :help for commands.\n", p.Name)

	feed := a.bus.Subscribe(16, events.EventRequestFailed, events.EventRecommendationsApplied)
	fed := printActivity(feed, out, jsonOutput)
	defer func() {
		a.bus.Unsubscribe(feed)
		<-fed
	}()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		err := execShell(ctx, a, out, parseShellLine(scanner.Text()))
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// printActivity writes one line per event from feed until feed is closed.
// The returned channel is closed once the last line is written.
func printActivity(feed <-chan events.Event, out io.Writer, asJSON bool) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range feed {
			line := e.EventType()
			if s, ok := e.(events.Summarizer); ok {
				line = s.Summary()
			}
			if asJSON {
				_ = printJSONLine(out, viewEvent{Kind: "activity", Message: line})
				continue
			}
			fmt.Fprintf(out, "  * %s\n", line)
		}
	}()
	return done
}

func execShell(ctx context.Context, a *app, out io.Writer, c shellCommand) error {
	s := a.session
	switch c.name {
	case "input":
		s.OnInput(c.arg)
		return nil
	case "search":
		return s.Search(ctx, c.arg)
	case "confirm":
		return s.ConfirmSelection(ctx)
	case "up":
		s.MoveSelection(-1)
		return nil
	case "down":
		s.MoveSelection(1)
		return nil
	case "pick":
		n, err := strconv.Atoi(c.arg)
		if err != nil {
			return fmt.Errorf("pick needs a number, got %q", c.arg)
		}
		return s.SelectSuggestion(ctx, n-1)
	case "watch", "like", "dislike":
		return shellMovieAction(ctx, a, out, c)
	case "mood":
		m, err := profile.ParseMood(c.arg)
		if err != nil {
			return fmt.Errorf("%w: %q (choose from %s)", err, c.arg, joinOr(moodNames(), ""))
		}
		return a.profiles.SetMood(ctx, m)
	case "rec":
		return s.RefreshRecommendations(ctx)
	case "stats":
		printStats(out, s.Stats())
		return nil
	case "help", "h", "?":
		fmt.Fprintln(out, shellHelp)
		return nil
	case "quit", "q", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command :%s", c.name)
	}
}

func printStats(out io.Writer, st session.Stats) {
	fmt.Fprintf(out, "live requests: %d\n", st.LiveRequests)
	for _, ch := range []channel.Name{channel.Suggestions, channel.Search, channel.Recommendations} {
		fmt.Fprintf(out, "cached %-16s %d\n", ch+":", st.Cached[ch])
	}
	fmt.Fprintf(out, "cache ttl: %s, suggestion delay: %s, refresh delay: %s\n",
		st.CacheTTL, st.SuggestDelay, st.RefreshDelay)
}

func shellMovieAction(ctx context.Context, a *app, out io.Writer, c shellCommand) error {
	n, err := strconv.Atoi(c.arg)
	if err != nil {
		return fmt.Errorf("%s needs a number from the last list, got %q", c.name, c.arg)
	}
	m, ok := a.view.lastListed(n)
	if !ok {
		return fmt.Errorf("no movie %d in the last list", n)
	}

	switch c.name {
	case "watch":
		added, err := a.profiles.ToggleWatchlist(ctx, m)
		if err != nil {
			return err
		}
		if added {
			fmt.Fprintf(out, "Added %s to your watchlist\n", movieLabel(m))
		} else {
			fmt.Fprintf(out, "Removed %s from your watchlist\n", movieLabel(m))
		}
	default:
		rating := profile.Like
		if c.name == "dislike" {
			rating = profile.Dislike
		}
		result, err := a.profiles.Rate(ctx, m.ID, rating)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", movieLabel(m), result)
	}
	return nil
}
