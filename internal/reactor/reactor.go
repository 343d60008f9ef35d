// Package reactor turns store changes into rendering and side effects. It
// keeps the previous snapshot and compares sub-tree pointers, so each panel
// is redrawn only when the data behind it was replaced.
package reactor

import (
	"time"

	"github.com/rs/zerolog"

	"cryptodash/internal/model"
	"cryptodash/internal/scheduler"
	"cryptodash/internal/store"
)

// Renderer draws the dashboard panels.
type Renderer interface {
	Auth(auth *store.AuthState)
	Feed(st store.State)
	Watchlist(st store.State)
	SearchResults(search *store.SearchState)
	Summary(selected string, summary *model.HistoricalSummary, ui *store.UIState)
	Report(report *model.AnalysisReport, ui *store.UIState)
	Status(ui *store.UIState)
	Notifications(items []model.Notification)
}

// Effects are the side effects the reactor triggers. They are invoked on the
// dispatching goroutine and must not block.
type Effects interface {
	// FetchSummary requests the historical summary of a newly selected asset.
	FetchSummary(assetID string)
	// ShowSummary re-applies a summary fetched earlier in the session.
	ShowSummary(summary model.HistoricalSummary)
	// ExpireNotification removes a notification once its display time is over.
	ExpireNotification(id string)
	// LoadDashboard starts the post-login load once sign-in succeeds.
	LoadDashboard(userID int)
	// Teardown runs when the session ends.
	Teardown()
}

// Source is the slice of the store the reactor reads.
type Source interface {
	GetState() store.State
	Subscribe(l store.Listener) (unsubscribe func())
}

// Reactor reacts to state transitions.
type Reactor struct {
	src     Source
	render  Renderer
	effects Effects
	after   scheduler.AfterFunc
	display time.Duration
	log     zerolog.Logger

	prev      store.State
	summaries map[string]model.HistoricalSummary
	expiry    map[string]scheduler.Cancel
}

// New creates a Reactor. Notifications are removed display after they are
// first rendered.
func New(src Source, render Renderer, effects Effects, after scheduler.AfterFunc, display time.Duration, log zerolog.Logger) *Reactor {
	return &Reactor{
		src:       src,
		render:    render,
		effects:   effects,
		after:     after,
		display:   display,
		log:       log.With().Str("component", "reactor").Logger(),
		summaries: make(map[string]model.HistoricalSummary),
		expiry:    make(map[string]scheduler.Cancel),
	}
}

// Attach renders the current state and subscribes to changes.
func (r *Reactor) Attach() (detach func()) {
	r.prev = r.src.GetState()
	r.renderAll(r.prev)
	unsubscribe := r.src.Subscribe(r.onChange)
	return func() {
		unsubscribe()
		for id, c := range r.expiry {
			c.Stop()
			delete(r.expiry, id)
		}
	}
}

func (r *Reactor) renderAll(st store.State) {
	r.render.Auth(st.Auth)
	r.render.Feed(st)
	r.render.Watchlist(st)
	r.render.SearchResults(st.UI.Search)
	r.render.Summary(st.UI.SelectedAssetID, st.UI.HistoricalSummary, st.UI)
	r.render.Report(st.UI.AnalysisReport, st.UI)
	r.render.Status(st.UI)
	r.notifications(st.UI.Notifications)
}

func (r *Reactor) onChange() {
	next := r.src.GetState()
	prev := r.prev
	// Effects may dispatch; the nested call must diff against next.
	r.prev = next

	if prev.Auth != next.Auth {
		r.render.Auth(next.Auth)
		switch {
		case next.Auth.Status == store.AuthInactive && prev.Auth.Status != store.AuthInactive:
			r.teardown()
		case next.Auth.Status == store.AuthSucceeded && prev.Auth.Status != store.AuthSucceeded && next.Auth.User != nil:
			r.effects.LoadDashboard(next.Auth.User.ID)
		}
	}
	if prev.Market != next.Market || prev.Assets != next.Assets || prev.Watchlist != next.Watchlist {
		r.render.Feed(next)
	}
	if prev.Watchlist != next.Watchlist {
		r.render.Watchlist(next)
	}
	if prev.UI != next.UI {
		r.onUI(prev.UI, next.UI)
	}
}

func (r *Reactor) onUI(prev, next *store.UIState) {
	if prev.Search != next.Search {
		r.render.SearchResults(next.Search)
	}
	if next.HistoricalSummary != nil && prev.HistoricalSummary != next.HistoricalSummary {
		r.summaries[next.HistoricalSummary.Symbol] = *next.HistoricalSummary
	}
	if prev.SelectedAssetID != next.SelectedAssetID || prev.HistoricalSummary != next.HistoricalSummary {
		r.render.Summary(next.SelectedAssetID, next.HistoricalSummary, next)
	}
	if prev.AnalysisReport != next.AnalysisReport {
		r.render.Report(next.AnalysisReport, next)
	}
	if prev.Status != next.Status || prev.Loading != next.Loading {
		r.render.Status(next)
	}
	if prev.Notifications != next.Notifications {
		r.notifications(next.Notifications)
	}
	if sel := next.SelectedAssetID; sel != "" && sel != prev.SelectedAssetID {
		if cached, ok := r.summaries[sel]; ok {
			r.log.Debug().Str("asset", sel).Msg("using cached summary")
			r.effects.ShowSummary(cached)
		} else {
			r.effects.FetchSummary(sel)
		}
	}
}

// notifications renders the tray and schedules the removal of every
// notification seen for the first time.
func (r *Reactor) notifications(list *store.NotificationList) {
	r.render.Notifications(list.Items)

	live := make(map[string]bool, len(list.Items))
	for _, n := range list.Items {
		live[n.ID] = true
		if _, ok := r.expiry[n.ID]; ok {
			continue
		}
		id := n.ID
		r.expiry[id] = r.after(r.display, func() { r.effects.ExpireNotification(id) })
	}
	for id, c := range r.expiry {
		if !live[id] {
			c.Stop()
			delete(r.expiry, id)
		}
	}
}

func (r *Reactor) teardown() {
	r.log.Info().Msg("session ended, tearing down")
	r.summaries = make(map[string]model.HistoricalSummary)
	r.effects.Teardown()
}

// Cached reports whether a summary for assetID was seen this session.
func (r *Reactor) Cached(assetID string) bool {
	_, ok := r.summaries[model.NormalizeSymbol(assetID)]
	return ok
}
