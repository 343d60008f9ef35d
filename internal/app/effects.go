package app

import (
	"cryptodash/internal/model"
	"cryptodash/internal/store"
)

// FetchSummary requests the history of a newly selected asset.
func (a *App) FetchSummary(assetID string) {
	a.facade.GetHistoricalSummary(assetID)
}

// ShowSummary re-applies a summary fetched earlier in the session.
func (a *App) ShowSummary(summary model.HistoricalSummary) {
	a.facade.Do(func() { a.store.Dispatch(store.HistoricalSummary{Summary: summary}) })
}

// ExpireNotification removes a notification whose display time is over.
func (a *App) ExpireNotification(id string) {
	a.facade.Do(func() { a.store.Dispatch(store.RemoveNotification{ID: id}) })
}

// LoadDashboard starts the post-login load for the current session. It runs on
// the loop when sign-in succeeds.
func (a *App) LoadDashboard(userID int) {
	a.mu.Lock()
	ctx, gen := a.sessionCtx, a.session
	a.mu.Unlock()
	if ctx == nil {
		return
	}
	go a.loadDashboard(ctx, gen, userID)
}

// Teardown stops the feed and resets the view, notifications included. It
// runs on the loop while the logout is being dispatched.
func (a *App) Teardown() {
	a.debounce.Cancel()
	a.feedOn = false
	a.facade.StopMarketFeed()
	a.facade.Do(func() { a.store.Dispatch(store.ResetUI{}) })
}
