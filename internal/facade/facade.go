// Package facade exposes the background tasks to the UI as plain method
// calls and routes their results into the store.
//
// Run owns the main loop: every store dispatch, and therefore every listener
// callback, happens on the goroutine executing Run. The public methods may be
// called from any goroutine; they enqueue work on that loop and return
// immediately.
package facade

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cryptodash/internal/message"
	"cryptodash/internal/model"
	"cryptodash/internal/store"
	"cryptodash/internal/worker"
)

// Dispatcher is the slice of the store the facade needs.
type Dispatcher interface {
	Dispatch(a store.Action) bool
	GetState() store.State
}

// Tasks are the background tasks driven by the facade.
type Tasks struct {
	Boot       worker.Task
	Poll       worker.Task
	Search     worker.Task
	Historical worker.Task
	Analysis   worker.Task
}

func (t Tasks) all() []worker.Task {
	return []worker.Task{t.Boot, t.Poll, t.Search, t.Historical, t.Analysis}
}

// Facade is the single entry point between UI code and the tasks.
type Facade struct {
	store Dispatcher
	tasks Tasks
	calls *callQueue
	now   func() time.Time
	log   zerolog.Logger

	// loop-owned
	seeded bool
}

// Option configures a Facade.
type Option func(*Facade)

// WithClock overrides the time source used to stamp market updates.
func WithClock(now func() time.Time) Option {
	return func(f *Facade) { f.now = now }
}

// New creates a Facade. Call Run to start the tasks and the main loop.
func New(st Dispatcher, tasks Tasks, log zerolog.Logger, opts ...Option) *Facade {
	f := &Facade{
		store: st,
		tasks: tasks,
		calls: newCallQueue(),
		now:   time.Now,
		log:   log.With().Str("component", "facade").Logger(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Run starts every task and processes results and queued calls until ctx is
// done. It returns after all tasks have stopped.
func (f *Facade) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, t := range f.tasks.all() {
		wg.Add(1)
		go func(t worker.Task) {
			defer wg.Done()
			t.Run(ctx)
		}(t)
	}
	f.log.Info().Msg("facade started")
	defer func() {
		wg.Wait()
		f.log.Info().Msg("facade stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.calls.ready:
			for _, fn := range f.calls.drain() {
				fn()
			}
		case env := <-f.tasks.Boot.Results():
			f.routeBoot(env)
		case env := <-f.tasks.Poll.Results():
			f.routePoll(env)
		case env := <-f.tasks.Search.Results():
			f.routeSearch(env)
		case env := <-f.tasks.Historical.Results():
			f.routeHistorical(env)
		case env := <-f.tasks.Analysis.Results():
			f.routeAnalysis(env)
		}
	}
}

// Do runs fn on the main loop.
func (f *Facade) Do(fn func()) {
	f.calls.push(fn)
}

// StartBootLoad marks the catalog as loading and asks the boot task for it.
func (f *Facade) StartBootLoad() {
	f.Do(func() {
		f.store.Dispatch(store.AssetsLoading{})
		f.tasks.Boot.Post(message.Must(message.LoadAssets, nil))
	})
}

// StartMarketFeed starts, or restarts, polling for ids.
func (f *Facade) StartMarketFeed(ids []string) {
	payload := message.StartFeedPayload{IDs: model.NormalizeSymbols(ids)}
	f.Do(func() {
		f.tasks.Poll.Post(message.Must(message.StartFeed, payload))
	})
}

// StopMarketFeed stops polling. It is a no-op when the feed is not running.
func (f *Facade) StopMarketFeed() {
	f.Do(func() {
		f.tasks.Poll.Post(message.Must(message.StopFeed, nil))
	})
}

// SearchAssets filters the catalog. Until the search task has been seeded the
// current catalog travels with the request.
func (f *Facade) SearchAssets(query string) {
	f.Do(func() {
		if f.seeded {
			f.tasks.Search.Post(message.Must(message.Search, message.SearchPayload{Query: query}))
			return
		}
		f.tasks.Search.Post(message.Must(message.FilterAssets, message.SearchPayload{
			Query:  query,
			Assets: catalogOf(f.store.GetState()),
		}))
	})
}

// GetHistoricalSummary marks the history panel as loading and requests the
// summary of assetID.
func (f *Facade) GetHistoricalSummary(assetID string) {
	payload := message.SummaryPayload{AssetID: model.NormalizeSymbol(assetID)}
	f.Do(func() {
		f.store.Dispatch(store.SetLoading{Section: store.SectionHistory})
		f.tasks.Historical.Post(message.Must(message.GetSummary, payload))
	})
}

// RunAnalysis marks the analysis panel as loading and runs strategyName over
// watchlist with data.
func (f *Facade) RunAnalysis(strategyName string, watchlist []string, data model.MarketData) {
	payload := message.AnalysisPayload{StrategyName: strategyName, Watchlist: watchlist, MarketData: data}
	env, err := message.New(message.RunAnalysis, payload)
	f.Do(func() {
		if err != nil {
			f.log.Error().Err(err).Msg("encode analysis request")
			return
		}
		f.store.Dispatch(store.SetLoading{Section: store.SectionAnalysis})
		f.tasks.Analysis.Post(env)
	})
}

func catalogOf(st store.State) []model.Asset {
	out := make([]model.Asset, 0, len(st.Assets.Catalog))
	for _, a := range st.Assets.Catalog {
		out = append(out, a)
	}
	return out
}
