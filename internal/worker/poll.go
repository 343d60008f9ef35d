package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cryptodash/internal/gateway"
	"cryptodash/internal/message"
	"cryptodash/internal/model"
	"cryptodash/internal/scheduler"
)

// DefaultPollInterval is the market feed period.
const DefaultPollInterval = 10 * time.Second

// AlertRule raises an ALERT when a symbol crosses a bound. A zero bound is
// unset.
type AlertRule struct {
	Symbol string
	Above  float64
	Below  float64
}

type alertKey struct {
	symbol string
	above  bool
}

type fetchResult struct {
	gen   uint64
	quote model.PriceQuote
	err   error
}

// PollTask fetches prices for a symbol set on a fixed period between
// START_FEED and STOP_FEED. At most one ticker is live at any time.
type PollTask struct {
	base
	api       gateway.MarketAPI
	newTicker scheduler.TickerFactory
	period    time.Duration
	rules     []AlertRule

	// owned by the Run goroutine
	ticker   scheduler.Ticker
	ids      []string
	inflight bool
	fired    map[alertKey]bool

	mu     sync.Mutex
	gen    uint64
	active []string
}

// NewPollTask creates the market feed task.
func NewPollTask(api gateway.MarketAPI, newTicker scheduler.TickerFactory, period time.Duration, rules []AlertRule, log zerolog.Logger) *PollTask {
	if period <= 0 {
		period = DefaultPollInterval
	}
	normalized := make([]AlertRule, 0, len(rules))
	for _, r := range rules {
		r.Symbol = model.NormalizeSymbol(r.Symbol)
		if r.Symbol != "" && (r.Above > 0 || r.Below > 0) {
			normalized = append(normalized, r)
		}
	}
	return &PollTask{
		base:      newBase(NamePoll, log),
		api:       api,
		newTicker: newTicker,
		period:    period,
		rules:     normalized,
		fired:     make(map[alertKey]bool),
	}
}

// Generation increments on every START_FEED and STOP_FEED. Fetches issued
// under an older generation are discarded when they complete.
func (t *PollTask) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// Feed returns the symbols currently polled.
func (t *PollTask) Feed() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.active...)
}

func (t *PollTask) Run(ctx context.Context) {
	defer t.stop()
	defer t.stopTicker()

	fetched := make(chan fetchResult, 1)
	for {
		var tick <-chan time.Time
		if t.ticker != nil {
			tick = t.ticker.C()
		}
		select {
		case <-ctx.Done():
			return
		case <-t.inbox.Ready():
			for _, cmd := range t.inbox.Drain() {
				t.command(ctx, cmd)
			}
		case <-tick:
			if t.inflight {
				t.log.Debug().Msg("previous fetch still in flight, skipping tick")
				continue
			}
			t.inflight = true
			go t.fetch(ctx, t.Generation(), t.ids, fetched)
		case r := <-fetched:
			t.deliver(ctx, r)
		}
	}
}

func (t *PollTask) command(ctx context.Context, cmd message.Envelope) {
	switch cmd.Kind {
	case message.StartFeed:
		var p message.StartFeedPayload
		if err := cmd.Decode(&p); err != nil {
			t.log.Warn().Err(err).Msg("bad START_FEED")
			t.emit(ctx, errorResult(err))
			return
		}
		t.start(model.NormalizeSymbols(p.IDs))
	case message.StopFeed:
		t.halt()
	default:
		t.emit(ctx, errorResult(errUnsupported(NamePoll, cmd.Kind)))
	}
}

// start replaces any running feed. An empty symbol set leaves the task idle.
func (t *PollTask) start(ids []string) {
	t.stopTicker()
	t.bump(ids)
	t.ids = ids
	t.inflight = false
	if len(ids) == 0 {
		t.log.Info().Msg("feed requested with no symbols, staying idle")
		t.setState(Idle)
		return
	}
	t.ticker = t.newTicker(t.period)
	t.setState(Polling)
	t.log.Info().Strs("ids", ids).Dur("period", t.period).Msg("feed started")
}

func (t *PollTask) halt() {
	wasRunning := t.ticker != nil
	t.stopTicker()
	t.bump(nil)
	t.ids = nil
	t.inflight = false
	t.setState(Idle)
	if wasRunning {
		t.log.Info().Msg("feed stopped")
	}
}

func (t *PollTask) bump(ids []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.active = append([]string(nil), ids...)
}

func (t *PollTask) stopTicker() {
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
}

func (t *PollTask) fetch(ctx context.Context, gen uint64, ids []string, out chan<- fetchResult) {
	r := fetchResult{gen: gen}
	func() {
		defer func() {
			if p := recover(); p != nil {
				r.err = fmt.Errorf("poll fetch panicked: %v", p)
			}
		}()
		r.quote, r.err = t.api.FetchPrices(ctx, ids)
	}()
	select {
	case out <- r:
	case <-ctx.Done():
	}
}

func (t *PollTask) deliver(ctx context.Context, r fetchResult) {
	if r.gen != t.Generation() {
		t.log.Debug().Uint64("gen", r.gen).Msg("discarding stale fetch")
		return
	}
	t.inflight = false
	if r.err != nil {
		t.log.Warn().Err(r.err).Msg("price fetch failed")
		t.emit(ctx, errorResult(r.err))
		return
	}
	if r.quote.Empty() {
		t.log.Debug().Strs("ids", t.ids).Msg("no prices returned")
		return
	}
	t.emit(ctx, message.Must(message.MarketUpdate, r.quote))
	for _, n := range t.evaluate(r.quote) {
		t.emit(ctx, message.Must(message.Alert, n))
	}
}

// evaluate fires each rule once per crossing. A rule re-arms when the price
// moves back inside its bound.
func (t *PollTask) evaluate(q model.PriceQuote) []model.Notification {
	var out []model.Notification
	for _, r := range t.rules {
		price, ok := q.Prices[r.Symbol]
		if !ok {
			continue
		}
		if r.Above > 0 {
			k := alertKey{symbol: r.Symbol, above: true}
			crossed := price >= r.Above
			if crossed && !t.fired[k] {
				out = append(out, model.NewNotification(model.SeverityAlert,
					fmt.Sprintf("%s rose above $%.2f (now $%.2f)", r.Symbol, r.Above, price)))
			}
			t.fired[k] = crossed
		}
		if r.Below > 0 {
			k := alertKey{symbol: r.Symbol, above: false}
			crossed := price <= r.Below
			if crossed && !t.fired[k] {
				out = append(out, model.NewNotification(model.SeverityAlert,
					fmt.Sprintf("%s fell below $%.2f (now $%.2f)", r.Symbol, r.Below, price)))
			}
			t.fired[k] = crossed
		}
	}
	return out
}
