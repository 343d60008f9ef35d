package render

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"cryptodash/internal/recorder"
	"cryptodash/internal/strategy"
)

// Commands is what the console can ask of the application. Every method
// returns immediately; results arrive through the renderer.
type Commands interface {
	Login(email, password string)
	Logout()
	Search(query string)
	Select(symbol string)
	History()
	Analyze(strategyName string)
	WatchAdd(symbol string)
	WatchRemove(symbol string)
	Note(symbol, text string)
	FeedStart()
	FeedStop()
	Journal(recent int) (*recorder.Summary, error)
}

const helpText = `commands:
  login <email> <password>   sign in
  logout                     sign out
  search <query>             search the catalog (as you type)
  select <SYMBOL>            select an asset and show its history
  history                    refresh the selected asset's history
  analyze [strategy]         run a strategy over the watchlist
  strategies                 list analysis strategies
  watch add|rm <SYMBOL>      edit the watchlist
  note <SYMBOL> <text>       annotate a watched symbol
  feed start|stop            control the live price feed
  journal                    show session activity
  help                       show this help
  quit                       exit`

// Console reads one command per line and forwards it to Commands.
type Console struct {
	cmds Commands
	out  io.Writer
	log  zerolog.Logger
}

// NewConsole creates a Console writing replies to out.
func NewConsole(cmds Commands, out io.Writer, log zerolog.Logger) *Console {
	return &Console{cmds: cmds, out: out, log: log.With().Str("component", "console").Logger()}
}

// Run reads commands from in until quit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case line := <-lines:
			reply, quit := c.HandleCommand(line)
			if reply != "" {
				fmt.Fprintln(c.out, reply)
			}
			if quit {
				return nil
			}
		}
	}
}

// HandleCommand executes one console line and returns the immediate reply.
func (c *Console) HandleCommand(line string) (reply string, quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	c.log.Debug().Str("command", cmd).Msg("received command")

	switch cmd {
	case "login":
		if len(args) != 2 {
			return "usage: login <email> <password>", false
		}
		c.cmds.Login(args[0], args[1])
		return "signing in...", false
	case "logout":
		c.cmds.Logout()
		return "", false
	case "search", "s":
		c.cmds.Search(strings.Join(args, " "))
		return "", false
	case "select":
		if len(args) != 1 {
			return "usage: select <SYMBOL>", false
		}
		c.cmds.Select(args[0])
		return "", false
	case "history":
		c.cmds.History()
		return "", false
	case "analyze":
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		c.cmds.Analyze(name)
		return "", false
	case "watch":
		if len(args) != 2 {
			return "usage: watch add|rm <SYMBOL>", false
		}
		switch strings.ToLower(args[0]) {
		case "add":
			c.cmds.WatchAdd(args[1])
		case "rm", "remove":
			c.cmds.WatchRemove(args[1])
		default:
			return "usage: watch add|rm <SYMBOL>", false
		}
		return "", false
	case "note":
		if len(args) < 1 {
			return "usage: note <SYMBOL> <text>", false
		}
		c.cmds.Note(args[0], strings.Join(args[1:], " "))
		return "", false
	case "feed":
		if len(args) != 1 {
			return "usage: feed start|stop", false
		}
		switch strings.ToLower(args[0]) {
		case "start":
			c.cmds.FeedStart()
			return "feed starting", false
		case "stop":
			c.cmds.FeedStop()
			return "feed stopped", false
		}
		return "usage: feed start|stop", false
	case "journal":
		sum, err := c.cmds.Journal(5)
		if err != nil {
			return "journal unavailable: " + err.Error(), false
		}
		return FormatJournal(sum), false
	case "strategies":
		return "strategies: " + strings.Join(strategy.Names(), ", "), false
	case "help", "?":
		return helpText, false
	case "quit", "exit":
		return "bye", true
	default:
		return fmt.Sprintf("unknown command %q, try help", cmd), false
	}
}

// FormatJournal renders journal counts, busiest kinds first.
func FormatJournal(sum *recorder.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s actions, %s price ticks\n",
		humanize.Comma(int64(sum.Dispatches)), humanize.Comma(int64(sum.PriceTicks)))

	kinds := make([]string, 0, len(sum.Counts))
	for k := range sum.Counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool {
		if sum.Counts[kinds[i]] != sum.Counts[kinds[j]] {
			return sum.Counts[kinds[i]] > sum.Counts[kinds[j]]
		}
		return kinds[i] < kinds[j]
	})
	for _, k := range kinds {
		fmt.Fprintf(&b, "  %-28s %s\n", k, humanize.Comma(int64(sum.Counts[k])))
	}
	if len(sum.Notifications) > 0 {
		b.WriteString("recent notifications:\n")
		for _, n := range sum.Notifications {
			fmt.Fprintf(&b, "  %-9s %s\n", severityTag(n.Severity), n.Message)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
