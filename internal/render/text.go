// Package render draws the dashboard as plain text and reads console
// commands.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"cryptodash/internal/calculator"
	"cryptodash/internal/model"
	"cryptodash/internal/store"
)

// Text renders each panel as a block of text on w.
type Text struct {
	mu     sync.Mutex
	w      io.Writer
	now    func() time.Time
	prices map[string]float64
}

// NewText creates a Text renderer.
func NewText(w io.Writer, now func() time.Time) *Text {
	if now == nil {
		now = time.Now
	}
	return &Text{w: w, now: now, prices: map[string]float64{}}
}

func (t *Text) write(title string, body func(b *strings.Builder)) {
	var b strings.Builder
	b.WriteString("== " + title + " ==\n")
	body(&b)
	t.mu.Lock()
	defer t.mu.Unlock()
	io.WriteString(t.w, b.String())
}

func (t *Text) Auth(auth *store.AuthState) {
	t.write("Session", func(b *strings.Builder) {
		switch auth.Status {
		case store.AuthLoading:
			b.WriteString("Signing in...\n")
		case store.AuthFailed:
			b.WriteString("Login failed. Try: login <email> <password>\n")
		case store.AuthSucceeded:
			name := "unknown user"
			if auth.User != nil {
				name = fmt.Sprintf("%s <%s>", auth.User.DisplayName(), auth.User.Email)
			}
			fmt.Fprintf(b, "Logged in as %s\n", name)
			if !auth.ExpiresAt.IsZero() {
				fmt.Fprintf(b, "Session expires %s\n", Ago(auth.ExpiresAt, t.now()))
			}
		default:
			b.WriteString("Logged out. Use: login <email> <password>\n")
		}
	})
}

// Feed renders the watched symbols with their last price and 24h change.
func (t *Text) Feed(st store.State) {
	t.mu.Lock()
	t.prices = st.Market.Prices
	t.mu.Unlock()

	t.write("Market", func(b *strings.Builder) {
		syms := st.Watchlist.Symbols()
		if len(syms) == 0 {
			b.WriteString("(watchlist is empty)\n")
			return
		}
		for _, sym := range syms {
			price, change := "n/a", ""
			if p, ok := st.Market.Prices[sym]; ok {
				price = Price(p)
			}
			if c, ok := st.Market.Changes[sym]; ok {
				change = Change(c)
			}
			fmt.Fprintf(b, "%-6s %-20s %16s %9s\n", sym, st.Assets.Name(sym), price, change)
		}
		fmt.Fprintf(b, "updated %s\n", Ago(st.Market.UpdatedAt, t.now()))
	})
}

func (t *Text) Watchlist(st store.State) {
	t.write("Watchlist", func(b *strings.Builder) {
		syms := st.Watchlist.Symbols()
		fmt.Fprintf(b, "%s watched\n", humanize.Comma(int64(len(syms))))
		for _, sym := range syms {
			if note := st.Watchlist.Items[sym].Notes; note != "" {
				fmt.Fprintf(b, "  %s: %s\n", sym, note)
			}
		}
	})
}

func (t *Text) SearchResults(search *store.SearchState) {
	t.write("Search", func(b *strings.Builder) {
		if search.Query == "" {
			b.WriteString("(no search)\n")
			return
		}
		fmt.Fprintf(b, "%q: %d result(s)\n", search.Query, len(search.Results))
		for _, r := range search.Results {
			fmt.Fprintf(b, "  %-8s %s\n", r.Symbol, r.Name)
		}
	})
}

func (t *Text) Summary(selected string, summary *model.HistoricalSummary, ui *store.UIState) {
	t.write("History", func(b *strings.Builder) {
		switch {
		case selected == "":
			b.WriteString("Select an asset: select <SYMBOL>\n")
		case summary == nil && ui.Loading == store.SectionHistory:
			fmt.Fprintf(b, "Loading history for %s...\n", selected)
		case summary == nil:
			fmt.Fprintf(b, "%s selected\n", selected)
		case !summary.HasData():
			fmt.Fprintf(b, "No historical data for %s\n", summary.Symbol)
		default:
			fmt.Fprintf(b, "%s over %d days (%d points)\n", summary.Symbol, summary.Days, summary.Points)
			fmt.Fprintf(b, "  high %s  low %s  avg %s\n",
				Price(*summary.MaxPrice), Price(*summary.MinPrice), Price(*summary.AvgPrice))
			t.mu.Lock()
			price, ok := t.prices[summary.Symbol]
			t.mu.Unlock()
			if ok {
				pos := calculator.RangePosition(price, *summary.MaxPrice, *summary.MinPrice)
				fmt.Fprintf(b, "  now %s, %.0f%% of range\n", Price(price), pos*100)
			}
		}
	})
}

func (t *Text) Report(report *model.AnalysisReport, ui *store.UIState) {
	t.write("Analysis", func(b *strings.Builder) {
		switch {
		case report == nil && ui.Loading == store.SectionAnalysis:
			b.WriteString("Running analysis...\n")
		case report == nil:
			b.WriteString("No analysis yet: analyze [strategy]\n")
		default:
			fmt.Fprintf(b, "%s by %s over %d asset(s)\n", report.Strategy, report.Metric, report.Scanned)
			fmt.Fprintf(b, "  best  %-6s %s %s\n", report.Best.Symbol, Price(report.Best.Price), Change(report.Best.Change))
			fmt.Fprintf(b, "  worst %-6s %s %s\n", report.Worst.Symbol, Price(report.Worst.Price), Change(report.Worst.Change))
			if len(report.Skipped) > 0 {
				fmt.Fprintf(b, "  no data: %s\n", strings.Join(report.Skipped, ", "))
			}
		}
	})
}

func (t *Text) Status(ui *store.UIState) {
	if ui.Status != store.UILoading {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "... loading %s\n", ui.Loading)
}

func (t *Text) Notifications(items []model.Notification) {
	tray := Tray(items)
	if len(tray) == 0 {
		return
	}
	t.write("Notifications", func(b *strings.Builder) {
		now := t.now()
		for _, n := range tray {
			fmt.Fprintf(b, "%-9s %s (%s)\n", severityTag(n.Severity), n.Message, Ago(n.CreatedAt, now))
		}
	})
}
