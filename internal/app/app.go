// Package app holds the session flow of the dashboard: sign-in and the
// dashboard load that follows it, sign-out, and the console commands.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"cryptodash/internal/facade"
	"cryptodash/internal/gateway"
	"cryptodash/internal/model"
	"cryptodash/internal/recorder"
	"cryptodash/internal/scheduler"
	"cryptodash/internal/store"
)

// Options tunes the session flow.
type Options struct {
	DefaultWatchlist []string
	MinQueryLen      int
	Debounce         time.Duration
	Now              func() time.Time
	After            scheduler.AfterFunc
}

// App implements the console commands and the reactor's side effects.
// Commands may be called from any goroutine. Store access happens on the
// facade loop.
type App struct {
	auth     gateway.AuthAPI
	market   gateway.MarketAPI
	store    facade.Dispatcher
	facade   *facade.Facade
	journal  recorder.Recorder
	debounce *scheduler.Debouncer
	opts     Options
	log      zerolog.Logger

	mu         sync.Mutex
	session    uint64
	sessionCtx context.Context
	cancel     context.CancelFunc

	// loop-owned
	feedOn bool
}

// New creates an App.
func New(auth gateway.AuthAPI, market gateway.MarketAPI, st facade.Dispatcher, f *facade.Facade, journal recorder.Recorder, opts Options, log zerolog.Logger) *App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.After == nil {
		opts.After = scheduler.RealAfter
	}
	if opts.MinQueryLen <= 0 {
		opts.MinQueryLen = 2
	}
	if journal == nil {
		journal = recorder.NewNoopRecorder()
	}
	return &App{
		auth:     auth,
		market:   market,
		store:    st,
		facade:   f,
		journal:  journal,
		debounce: scheduler.NewDebouncer(opts.Debounce, opts.After),
		opts:     opts,
		log:      log.With().Str("component", "app").Logger(),
	}
}

// Close abandons any sign-in still in flight.
func (a *App) Close() {
	a.endSession()
	a.debounce.Cancel()
}

// beginSession cancels the previous session and starts a new one.
func (a *App) beginSession() (context.Context, uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.sessionCtx, a.cancel = ctx, cancel
	a.session++
	return ctx, a.session
}

func (a *App) endSession() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.sessionCtx = nil
	a.session++
}

func (a *App) current() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// inSession runs fn on the loop unless session gen has ended.
func (a *App) inSession(gen uint64, fn func()) {
	a.facade.Do(func() {
		if a.current() != gen {
			a.log.Debug().Uint64("session", gen).Msg("dropping update from ended session")
			return
		}
		fn()
	})
}

// notify must run on the loop.
func (a *App) notify(sev model.Severity, msg string) {
	a.store.Dispatch(store.AddNotification{Notification: model.NewNotification(sev, msg)})
}

// Login signs in and, on success, loads the dashboard.
func (a *App) Login(email, password string) {
	ctx, gen := a.beginSession()
	a.facade.Do(func() { a.store.Dispatch(store.LoginLoading{}) })
	go a.signIn(ctx, gen, strings.TrimSpace(email), password)
}

func (a *App) signIn(ctx context.Context, gen uint64, email, password string) {
	res, err := a.auth.Login(ctx, email, password)
	if err != nil {
		a.loginFailed(gen, err)
		return
	}
	profile, err := a.auth.GetProfile(ctx, res.UserID)
	if err != nil {
		a.loginFailed(gen, err)
		return
	}
	expires := res.ExpiresAt
	if expires.IsZero() {
		if exp, ok := gateway.TokenExpiry(res.Token); ok {
			expires = exp
		}
	}
	a.log.Info().Int("user", profile.ID).Msg("signed in")
	a.inSession(gen, func() {
		a.store.Dispatch(store.LoginSucceeded{User: profile, Token: res.Token, ExpiresAt: expires})
		a.notify(model.SeveritySuccess, "Welcome, "+profile.DisplayName())
	})
}

func (a *App) loginFailed(gen uint64, err error) {
	a.log.Warn().Err(err).Msg("sign-in failed")
	msg := gateway.UserMessage(err)
	a.inSession(gen, func() {
		a.store.Dispatch(store.LoginFailed{Reason: msg})
		a.notify(model.SeverityError, "Login failed: "+msg)
	})
}

// loadDashboard fetches the watchlist, falling back to the default list, then
// one round of prices, then starts the catalog load and the live feed.
func (a *App) loadDashboard(ctx context.Context, gen uint64, userID int) {
	entries, err := a.auth.GetWatchlist(ctx, userID)
	if err != nil {
		a.log.Warn().Err(err).Msg("watchlist unavailable, using default")
	}
	items := make(map[string]store.WatchlistItem, len(entries))
	for _, e := range entries {
		if sym := model.NormalizeSymbol(e.Symbol); sym != "" {
			items[sym] = store.WatchlistItem{Notes: e.Notes}
		}
	}
	if len(items) == 0 {
		for _, sym := range model.NormalizeSymbols(a.opts.DefaultWatchlist) {
			items[sym] = store.WatchlistItem{}
		}
	}
	watch := &store.WatchlistState{Items: items}
	syms := watch.Symbols()
	a.inSession(gen, func() { a.store.Dispatch(store.SetWatchlist{Items: items}) })

	quote, err := a.market.FetchPrices(ctx, syms)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		a.log.Warn().Err(err).Msg("initial prices failed")
		a.inSession(gen, func() {
			a.notify(model.SeverityError, "Could not load prices: "+gateway.UserMessage(err))
		})
		return
	}
	a.inSession(gen, func() {
		a.store.Dispatch(store.SetInitialPrices{Quote: quote, At: a.opts.Now()})
		a.facade.StartBootLoad()
		a.facade.StartMarketFeed(syms)
		a.feedOn = true
	})
}

// Logout ends the session. The reactor performs the teardown.
func (a *App) Logout() {
	a.endSession()
	a.facade.Do(a.logout)
}

func (a *App) logout() {
	if a.store.GetState().Auth.Status == store.AuthInactive {
		return
	}
	a.store.Dispatch(store.Logout{})
}

// CheckSession signs out once the session token has expired.
func (a *App) CheckSession() {
	a.facade.Do(func() {
		auth := a.store.GetState().Auth
		if auth.Status != store.AuthSucceeded || auth.ExpiresAt.IsZero() || a.opts.Now().Before(auth.ExpiresAt) {
			return
		}
		a.log.Info().Time("expired", auth.ExpiresAt).Msg("session expired")
		a.endSession()
		a.logout()
		// queued behind the teardown so the reset does not clear it
		a.facade.Do(func() { a.notify(model.SeverityInfo, "Session expired, please log in again") })
	})
}

// Search filters the catalog once typing pauses. Short queries clear the
// results without reaching the search task.
func (a *App) Search(query string) {
	q := strings.TrimSpace(query)
	a.debounce.Call(func() {
		if utf8.RuneCountInString(q) < a.opts.MinQueryLen {
			a.facade.Do(func() { a.store.Dispatch(store.ClearSearch{}) })
			return
		}
		a.facade.SearchAssets(q)
	})
}

// Select changes the selected asset. Symbols missing from a loaded catalog
// are rejected.
func (a *App) Select(symbol string) {
	id := model.NormalizeSymbol(symbol)
	a.facade.Do(func() {
		if id == "" {
			return
		}
		assets := a.store.GetState().Assets
		if assets.Status == store.LoadSucceeded {
			if _, ok := assets.Catalog[id]; !ok {
				a.notify(model.SeverityError, fmt.Sprintf("Unknown asset %s", id))
				return
			}
		}
		a.store.Dispatch(store.SelectAsset{ID: id})
	})
}

// History refreshes the summary of the selected asset.
func (a *App) History() {
	a.facade.Do(func() {
		sel := a.store.GetState().UI.SelectedAssetID
		if sel == "" {
			a.notify(model.SeverityInfo, "Select an asset first")
			return
		}
		a.facade.GetHistoricalSummary(sel)
	})
}

// Analyze runs strategyName over the watchlist with the current market data.
func (a *App) Analyze(strategyName string) {
	a.facade.Do(func() {
		st := a.store.GetState()
		a.facade.RunAnalysis(strategyName, st.Watchlist.Symbols(), st.Market.Data())
	})
}

func (a *App) WatchAdd(symbol string) {
	a.editWatchlist(store.WatchlistAdd{Symbol: symbol})
}

func (a *App) WatchRemove(symbol string) {
	a.editWatchlist(store.WatchlistRemove{Symbol: symbol})
}

// Note annotates a watched symbol.
func (a *App) Note(symbol, text string) {
	id := model.NormalizeSymbol(symbol)
	a.facade.Do(func() {
		if _, ok := a.store.GetState().Watchlist.Items[id]; !ok {
			a.notify(model.SeverityError, fmt.Sprintf("%s is not on the watchlist", id))
			return
		}
		a.store.Dispatch(store.WatchlistNote{Symbol: id, Notes: strings.TrimSpace(text)})
	})
}

// editWatchlist applies act and restarts a running feed when the symbol set
// changed.
func (a *App) editWatchlist(act store.Action) {
	a.facade.Do(func() {
		before := a.store.GetState().Watchlist
		a.store.Dispatch(act)
		after := a.store.GetState().Watchlist
		if after != before && a.feedOn {
			a.facade.StartMarketFeed(after.Symbols())
		}
	})
}

func (a *App) FeedStart() {
	a.facade.Do(func() {
		st := a.store.GetState()
		if st.Auth.Status != store.AuthSucceeded {
			a.notify(model.SeverityInfo, "Log in to start the feed")
			return
		}
		a.feedOn = true
		a.facade.StartMarketFeed(st.Watchlist.Symbols())
	})
}

func (a *App) FeedStop() {
	a.facade.Do(func() {
		a.feedOn = false
		a.facade.StopMarketFeed()
	})
}

// Journal summarizes the session journal.
func (a *App) Journal(recent int) (*recorder.Summary, error) {
	return a.journal.Summary(recent)
}
