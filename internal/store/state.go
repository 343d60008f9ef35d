package store

import (
	"time"

	"cryptodash/internal/model"
)

// AuthStatus is the session lifecycle.
type AuthStatus string

const (
	AuthInactive  AuthStatus = "inactive"
	AuthLoading   AuthStatus = "loading"
	AuthSucceeded AuthStatus = "succeeded"
	AuthFailed    AuthStatus = "failed"
)

// LoadStatus tracks the asset catalog load.
type LoadStatus string

const (
	LoadInactive  LoadStatus = "inactive"
	LoadLoading   LoadStatus = "loading"
	LoadSucceeded LoadStatus = "succeeded"
	LoadFailed    LoadStatus = "failed"
)

// UIStatus is the loading affordance shared by the history and analysis panels.
type UIStatus string

const (
	UIIdle    UIStatus = "idle"
	UILoading UIStatus = "loading"
)

// Section names a panel of the dashboard.
type Section string

const (
	SectionNone     Section = ""
	SectionAssets   Section = "assets"
	SectionFeed     Section = "feed"
	SectionSearch   Section = "search"
	SectionHistory  Section = "history"
	SectionAnalysis Section = "analysis"
)

// State is one immutable snapshot. Every sub-tree is a pointer that is
// replaced when, and only when, its contents change, so consumers can detect
// changes by comparing pointers.
type State struct {
	Auth      *AuthState
	Assets    *AssetsState
	Market    *MarketState
	Watchlist *WatchlistState
	UI        *UIState
}

// AuthState is the session.
type AuthState struct {
	Status    AuthStatus
	User      *model.UserProfile
	Token     string
	ExpiresAt time.Time
}

// AssetsState is the catalog keyed by canonical symbol.
type AssetsState struct {
	Status  LoadStatus
	Catalog map[string]model.Asset
	Error   string
}

// Name resolves a symbol to its display name, falling back to the symbol.
func (a *AssetsState) Name(symbol string) string {
	if a != nil {
		if asset, ok := a.Catalog[model.NormalizeSymbol(symbol)]; ok && asset.Name != "" {
			return asset.Name
		}
	}
	return symbol
}

// MarketState holds the last observed USD price and 24h percent change per
// symbol. A missing key means unknown.
type MarketState struct {
	Prices    map[string]float64
	Changes   map[string]float64
	UpdatedAt time.Time
}

// Data returns the view handed to analysis strategies.
func (m *MarketState) Data() model.MarketData {
	return model.MarketData{Prices: m.Prices, Changes24: m.Changes}
}

// WatchlistItem is the per-symbol watchlist payload.
type WatchlistItem struct {
	Notes string
}

// WatchlistState maps canonical symbols to their item.
type WatchlistState struct {
	Items map[string]WatchlistItem
}

// Symbols returns the watched symbols in sorted order.
func (w *WatchlistState) Symbols() []string {
	return sortedKeys(w.Items)
}

// SearchState is the last applied search.
type SearchState struct {
	Query   string
	Results []model.AssetRef
}

// NotificationList is the ordered list of live notifications.
type NotificationList struct {
	Items []model.Notification
}

// UIState holds view-level state.
type UIState struct {
	SelectedAssetID   string
	Search            *SearchState
	HistoricalSummary *model.HistoricalSummary
	AnalysisReport    *model.AnalysisReport
	Status            UIStatus
	Loading           Section
	Notifications     *NotificationList
}

var (
	emptySearch        = &SearchState{}
	emptyNotifications = &NotificationList{}
)

// InitialState returns the state of a fresh process.
func InitialState() State {
	return State{
		Auth:      &AuthState{Status: AuthInactive},
		Assets:    &AssetsState{Status: LoadInactive, Catalog: map[string]model.Asset{}},
		Market:    &MarketState{Prices: map[string]float64{}, Changes: map[string]float64{}},
		Watchlist: &WatchlistState{Items: map[string]WatchlistItem{}},
		UI:        initialUI(),
	}
}

func initialUI() *UIState {
	return &UIState{
		Search:        emptySearch,
		Status:        UIIdle,
		Notifications: emptyNotifications,
	}
}
