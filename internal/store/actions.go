package store

import (
	"time"

	"cryptodash/internal/model"
)

// Action kinds, grouped by slice.
const (
	KindLoginLoading   = "auth/loginLoading"
	KindLoginSucceeded = "auth/loginSucceeded"
	KindLoginFailed    = "auth/loginFailed"
	KindLogout         = "auth/logout"

	KindAssetsLoading = "assets/loading"
	KindAssetsLoaded  = "assets/loaded"
	KindAssetsFailed  = "assets/failed"

	KindSetInitialPrices = "market/setInitialPrices"
	KindMarketUpdate     = "market/update"

	KindSetWatchlist  = "watchlist/set"
	KindWatchlistAdd  = "watchlist/add"
	KindWatchlistDrop = "watchlist/remove"
	KindWatchlistNote = "watchlist/note"

	KindSelectAsset        = "ui/selectAsset"
	KindSearchResults      = "ui/searchResults"
	KindClearSearch        = "ui/clearSearch"
	KindHistoricalSummary  = "ui/historicalSummary"
	KindAnalysisReport     = "ui/analysisReport"
	KindSetLoading         = "ui/setLoading"
	KindAddNotification    = "ui/addNotification"
	KindRemoveNotification = "ui/removeNotification"
	KindClearNotifications = "ui/clearNotifications"
	KindTaskFailed         = "ui/taskFailed"
	KindResetUI            = "ui/reset"
)

type LoginLoading struct{}

func (LoginLoading) Kind() string { return KindLoginLoading }

type LoginSucceeded struct {
	User      model.UserProfile
	Token     string
	ExpiresAt time.Time
}

func (LoginSucceeded) Kind() string { return KindLoginSucceeded }

type LoginFailed struct {
	Reason string
}

func (LoginFailed) Kind() string { return KindLoginFailed }

// Logout ends the session and drops session-scoped entities.
type Logout struct{}

func (Logout) Kind() string { return KindLogout }

type AssetsLoading struct{}

func (AssetsLoading) Kind() string { return KindAssetsLoading }

type AssetsLoaded struct {
	Assets []model.Asset
}

func (AssetsLoaded) Kind() string { return KindAssetsLoaded }

// AssetsFailed records a catalog load error.
type AssetsFailed struct {
	Message string
}

func (AssetsFailed) Kind() string { return KindAssetsFailed }

// SetInitialPrices replaces the market data wholesale.
type SetInitialPrices struct {
	Quote model.PriceQuote
	At    time.Time
}

func (SetInitialPrices) Kind() string { return KindSetInitialPrices }

// MarketUpdate merges a partial quote into the market data.
type MarketUpdate struct {
	Quote model.PriceQuote
	At    time.Time
}

func (MarketUpdate) Kind() string { return KindMarketUpdate }

type SetWatchlist struct {
	Items map[string]WatchlistItem
}

func (SetWatchlist) Kind() string { return KindSetWatchlist }

type WatchlistAdd struct {
	Symbol string
	Notes  string
}

func (WatchlistAdd) Kind() string { return KindWatchlistAdd }

type WatchlistRemove struct {
	Symbol string
}

func (WatchlistRemove) Kind() string { return KindWatchlistDrop }

type WatchlistNote struct {
	Symbol string
	Notes  string
}

func (WatchlistNote) Kind() string { return KindWatchlistNote }

// SelectAsset also discards the summary and report of the previous selection.
type SelectAsset struct {
	ID string
}

func (SelectAsset) Kind() string { return KindSelectAsset }

type SearchResults struct {
	Query   string
	Results []model.AssetRef
}

func (SearchResults) Kind() string { return KindSearchResults }

type ClearSearch struct{}

func (ClearSearch) Kind() string { return KindClearSearch }

type HistoricalSummary struct {
	Summary model.HistoricalSummary
}

func (HistoricalSummary) Kind() string { return KindHistoricalSummary }

type AnalysisReport struct {
	Report model.AnalysisReport
}

func (AnalysisReport) Kind() string { return KindAnalysisReport }

// SetLoading marks a panel as waiting for a task result.
type SetLoading struct {
	Section Section
}

func (SetLoading) Kind() string { return KindSetLoading }

type AddNotification struct {
	Notification model.Notification
}

func (AddNotification) Kind() string { return KindAddNotification }

type RemoveNotification struct {
	ID string
}

func (RemoveNotification) Kind() string { return KindRemoveNotification }

type ClearNotifications struct{}

func (ClearNotifications) Kind() string { return KindClearNotifications }

// TaskFailed surfaces a task error as a notification and releases the
// loading state of the section that issued the command.
type TaskFailed struct {
	Section      Section
	Notification model.Notification
}

func (TaskFailed) Kind() string { return KindTaskFailed }

// ResetUI restores the view state of a fresh process.
type ResetUI struct{}

func (ResetUI) Kind() string { return KindResetUI }
