package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodash/internal/config"
	"cryptodash/internal/facade"
	"cryptodash/internal/gateway"
	"cryptodash/internal/model"
	"cryptodash/internal/reactor"
	"cryptodash/internal/recorder"
	"cryptodash/internal/scheduler"
	"cryptodash/internal/store"
	"cryptodash/internal/worker"
)

const (
	period  = 10 * time.Second
	display = 5 * time.Second
	waitFor = 2 * time.Second
	tick    = time.Millisecond
)

type nopRenderer struct{}

func (nopRenderer) Auth(*store.AuthState)                                    {}
func (nopRenderer) Feed(store.State)                                         {}
func (nopRenderer) Watchlist(store.State)                                    {}
func (nopRenderer) SearchResults(*store.SearchState)                         {}
func (nopRenderer) Summary(string, *model.HistoricalSummary, *store.UIState) {}
func (nopRenderer) Report(*model.AnalysisReport, *store.UIState)             {}
func (nopRenderer) Status(*store.UIState)                                    {}
func (nopRenderer) Notifications([]model.Notification)                       {}

type harness struct {
	api   *gateway.Mock
	clock *scheduler.ManualClock
	poll  *worker.PollTask
	rec   *recorder.SQLiteRecorder
	st    *store.Store
	f     *facade.Facade
	app   *App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zerolog.Nop()
	h := &harness{
		api:   gateway.NewMock(),
		clock: scheduler.NewManualClock(time.Now()),
	}
	rec, err := recorder.NewSQLiteRecorder(recorder.MemoryPath, log)
	require.NoError(t, err)
	h.rec = rec

	h.st = store.New(log, store.WithObserver(JournalObserver(rec, h.clock.Now, log)))
	h.poll = worker.NewPollTask(h.api, h.clock.NewTicker, period, nil, log)
	h.f = facade.New(h.st, facade.Tasks{
		Boot:       worker.NewBootTask(h.api, log),
		Poll:       h.poll,
		Search:     worker.NewSearchTask(20, log),
		Historical: worker.NewHistoricalTask(h.api, 365, log),
		Analysis:   worker.NewAnalysisTask(log),
	}, log, facade.WithClock(h.clock.Now))
	h.app = New(h.api, h.api, h.st, h.f, rec, Options{
		DefaultWatchlist: config.DefaultWatchlist,
		MinQueryLen:      2,
		Debounce:         300 * time.Millisecond,
		Now:              h.clock.Now,
		After:            h.clock.AfterFunc,
	}, log)
	detach := reactor.New(h.st, nopRenderer{}, h.app, h.clock.AfterFunc, display, log).Attach()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.f.Run(ctx)
	}()
	t.Cleanup(func() {
		h.app.Close()
		cancel()
		<-done
		detach()
		rec.Close()
	})
	return h
}

func (h *harness) state() store.State {
	ch := make(chan store.State, 1)
	h.f.Do(func() { ch <- h.st.GetState() })
	select {
	case st := <-ch:
		return st
	case <-time.After(waitFor):
		return h.st.GetState()
	}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	h.app.Login("eve.holt@reqres.in", "cityslicka")
	require.Eventually(t, func() bool {
		st := h.state()
		return st.Auth.Status == store.AuthSucceeded && st.Assets.Status == store.LoadSucceeded && h.poll.Generation() == 1
	}, waitFor, tick)
}

func messages(st store.State) []string {
	var out []string
	for _, n := range st.UI.Notifications.Items {
		out = append(out, n.Message)
	}
	return out
}

func TestLoginLoadsDashboard(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	st := h.state()
	require.NotNil(t, st.Auth.User)
	assert.Equal(t, "Janet Weaver", st.Auth.User.DisplayName())
	assert.NotEmpty(t, st.Auth.Token)
	assert.False(t, st.Auth.ExpiresAt.IsZero())
	assert.Len(t, st.Watchlist.Items, 15)
	assert.Equal(t, 50000.0, st.Market.Prices["BTC"])
	assert.Len(t, st.Assets.Catalog, 18)
	assert.ElementsMatch(t, config.DefaultWatchlist, h.poll.Feed())
	assert.Equal(t, []string{"Welcome, Janet Weaver"}, messages(st))

	sum, err := h.app.Journal(5)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Counts[store.KindLoginSucceeded])
	assert.Equal(t, 1, sum.Counts[store.KindSetInitialPrices])
	assert.Equal(t, 15, sum.PriceTicks)
}

func TestLoginUsesRemoteWatchlist(t *testing.T) {
	h := newHarness(t)
	h.api.SetWatchlist([]gateway.WatchlistEntry{{Symbol: "btc", Notes: "core"}, {Symbol: "sol"}})
	h.login(t)

	st := h.state()
	assert.Equal(t, map[string]store.WatchlistItem{"BTC": {Notes: "core"}, "SOL": {}}, st.Watchlist.Items)
	assert.Equal(t, []string{"BTC", "SOL"}, h.poll.Feed())
}

func TestLoginFailure(t *testing.T) {
	h := newHarness(t)
	h.app.Login("eve.holt@reqres.in", "")

	require.Eventually(t, func() bool { return h.state().Auth.Status == store.AuthFailed }, waitFor, tick)
	assert.Equal(t, []string{"Login failed: Missing email or password"}, messages(h.state()))
	assert.Equal(t, 0, h.api.Calls(gateway.OpProfile))
}

func TestInitialPriceFailureStopsSequence(t *testing.T) {
	h := newHarness(t)
	h.api.Fail(gateway.OpPrices, &gateway.NetworkError{Op: gateway.OpPrices, Err: gateway.ErrMockOffline})
	h.app.Login("eve.holt@reqres.in", "cityslicka")

	require.Eventually(t, func() bool { return len(h.state().UI.Notifications.Items) == 2 }, waitFor, tick)
	st := h.state()
	assert.Equal(t, store.AuthSucceeded, st.Auth.Status)
	assert.Equal(t, "Could not load prices: network error during fetch prices", messages(st)[1])
	assert.Equal(t, 0, h.api.Calls(gateway.OpAssets))
	assert.Zero(t, h.poll.Generation())
}

func TestLogoutTearsDown(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.app.Select("BTC")
	require.Eventually(t, func() bool { return h.state().UI.HistoricalSummary != nil }, waitFor, tick)

	h.app.Logout()
	require.Eventually(t, func() bool { return h.poll.Generation() == 2 }, waitFor, tick)
	st := h.state()
	assert.Equal(t, store.AuthInactive, st.Auth.Status)
	assert.Empty(t, st.Watchlist.Items)
	assert.Empty(t, st.UI.Notifications.Items)
	assert.Empty(t, st.UI.SelectedAssetID)
	assert.Nil(t, st.UI.HistoricalSummary)
	assert.Equal(t, 0, h.clock.Active())
	assert.Eventually(t, func() bool { return h.poll.State() == worker.Idle }, waitFor, tick)
}

func TestSearchIsDebounced(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.app.Search("b")
	h.app.Search("bi")
	h.app.Search("bit")
	h.clock.Advance(299 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, h.state().UI.Search.Query)

	h.clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool { return h.state().UI.Search.Query == "bit" }, waitFor, tick)
	assert.Len(t, h.state().UI.Search.Results, 2)

	h.app.Search("b")
	h.clock.Advance(300 * time.Millisecond)
	require.Eventually(t, func() bool { return h.state().UI.Search.Query == "" }, waitFor, tick)
}

func TestSelectFetchesHistoryOnce(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.app.Select("eth")
	require.Eventually(t, func() bool { return h.state().UI.HistoricalSummary != nil }, waitFor, tick)
	st := h.state()
	assert.Equal(t, "ETH", st.UI.HistoricalSummary.Symbol)
	assert.Equal(t, 365, st.UI.HistoricalSummary.Days)

	h.app.Select("BTC")
	require.Eventually(t, func() bool {
		s := h.state().UI.HistoricalSummary
		return s != nil && s.Symbol == "BTC"
	}, waitFor, tick)
	h.app.Select("ETH")
	require.Eventually(t, func() bool {
		s := h.state().UI.HistoricalSummary
		return s != nil && s.Symbol == "ETH"
	}, waitFor, tick)
	assert.Equal(t, 2, h.api.Calls(gateway.OpHistory))

	h.app.History()
	require.Eventually(t, func() bool { return h.api.Calls(gateway.OpHistory) == 3 }, waitFor, tick)

	h.app.Select("NOPE")
	require.Eventually(t, func() bool {
		msgs := messages(h.state())
		return len(msgs) > 0 && msgs[len(msgs)-1] == "Unknown asset NOPE"
	}, waitFor, tick)
	assert.Equal(t, "ETH", h.state().UI.SelectedAssetID)

	h.app.Select("eth")
	st = h.state()
	require.NotNil(t, st.UI.HistoricalSummary)
	assert.Equal(t, "ETH", st.UI.HistoricalSummary.Symbol)
}

func TestAnalyzeWatchlist(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.app.Analyze("")
	require.Eventually(t, func() bool { return h.state().UI.AnalysisReport != nil }, waitFor, tick)
	r := h.state().UI.AnalysisReport
	assert.Equal(t, "BEST_PERFORMER", r.Strategy)
	assert.Equal(t, "BTC", r.Best.Symbol)
	assert.Equal(t, "XLM", r.Worst.Symbol)
	assert.Equal(t, 15, r.Scanned)
}

func TestWatchlistEditsRestartFeed(t *testing.T) {
	h := newHarness(t)
	h.api.SetWatchlist([]gateway.WatchlistEntry{{Symbol: "BTC"}})
	h.login(t)

	h.app.WatchAdd("eth")
	require.Eventually(t, func() bool { return h.poll.Generation() == 2 }, waitFor, tick)
	assert.Equal(t, []string{"BTC", "ETH"}, h.poll.Feed())

	h.app.WatchAdd("ETH")
	h.app.Note("eth", " staking ")
	h.app.Note("DOGE", "x")
	require.Eventually(t, func() bool { return len(h.state().UI.Notifications.Items) == 2 }, waitFor, tick)
	st := h.state()
	assert.Equal(t, "staking", st.Watchlist.Items["ETH"].Notes)
	assert.Equal(t, "DOGE is not on the watchlist", messages(st)[1])
	assert.Equal(t, uint64(2), h.poll.Generation())

	h.app.FeedStop()
	require.Eventually(t, func() bool { return h.poll.Generation() == 3 }, waitFor, tick)
	h.app.WatchRemove("btc")
	require.Eventually(t, func() bool { return len(h.state().Watchlist.Items) == 1 }, waitFor, tick)
	assert.Equal(t, uint64(3), h.poll.Generation())

	h.app.FeedStart()
	require.Eventually(t, func() bool { return h.poll.Generation() == 4 }, waitFor, tick)
	assert.Equal(t, []string{"ETH"}, h.poll.Feed())
}

func TestFeedStartRequiresLogin(t *testing.T) {
	h := newHarness(t)
	h.app.FeedStart()
	require.Eventually(t, func() bool { return len(h.state().UI.Notifications.Items) == 1 }, waitFor, tick)
	assert.Equal(t, "Log in to start the feed", messages(h.state())[0])
	assert.Zero(t, h.poll.Generation())
}

func TestSessionExpiry(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.app.CheckSession()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, store.AuthSucceeded, h.state().Auth.Status)

	h.clock.Advance(2 * time.Hour)
	h.app.CheckSession()
	require.Eventually(t, func() bool { return h.state().Auth.Status == store.AuthInactive }, waitFor, tick)
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"Session expired, please log in again"}, messages(h.state()))
	}, waitFor, tick)
}

func TestNotificationsExpireAfterDisplay(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	require.Len(t, h.state().UI.Notifications.Items, 1)

	h.clock.Advance(display)
	require.Eventually(t, func() bool { return len(h.state().UI.Notifications.Items) == 0 }, waitFor, tick)
}
