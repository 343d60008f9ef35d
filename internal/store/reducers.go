package store

import (
	"cryptodash/internal/model"
)

// Reducers returns the reducer table keyed by action kind.
func Reducers() map[string]Reducer {
	return map[string]Reducer{
		KindLoginLoading:   reduceLoginLoading,
		KindLoginSucceeded: reduceLoginSucceeded,
		KindLoginFailed:    reduceLoginFailed,
		KindLogout:         reduceLogout,

		KindAssetsLoading: reduceAssetsLoading,
		KindAssetsLoaded:  reduceAssetsLoaded,
		KindAssetsFailed:  reduceAssetsFailed,

		KindSetInitialPrices: reduceSetInitialPrices,
		KindMarketUpdate:     reduceMarketUpdate,

		KindSetWatchlist:  reduceSetWatchlist,
		KindWatchlistAdd:  reduceWatchlistAdd,
		KindWatchlistDrop: reduceWatchlistRemove,
		KindWatchlistNote: reduceWatchlistNote,

		KindSelectAsset:        reduceSelectAsset,
		KindSearchResults:      reduceSearchResults,
		KindClearSearch:        reduceClearSearch,
		KindHistoricalSummary:  reduceHistoricalSummary,
		KindAnalysisReport:     reduceAnalysisReport,
		KindSetLoading:         reduceSetLoading,
		KindAddNotification:    reduceAddNotification,
		KindRemoveNotification: reduceRemoveNotification,
		KindClearNotifications: reduceClearNotifications,
		KindTaskFailed:         reduceTaskFailed,
		KindResetUI:            reduceResetUI,
	}
}

// auth

func reduceLoginLoading(s State, _ Action) State {
	s.Auth = &AuthState{Status: AuthLoading}
	return s
}

func reduceLoginSucceeded(s State, a Action) State {
	act := a.(LoginSucceeded)
	user := act.User
	s.Auth = &AuthState{Status: AuthSucceeded, User: &user, Token: act.Token, ExpiresAt: act.ExpiresAt}
	return s
}

func reduceLoginFailed(s State, _ Action) State {
	s.Auth = &AuthState{Status: AuthFailed}
	return s
}

func reduceLogout(s State, _ Action) State {
	fresh := InitialState()
	s.Auth = fresh.Auth
	s.Market = fresh.Market
	s.Watchlist = fresh.Watchlist
	return s
}

// assets

func reduceAssetsLoading(s State, _ Action) State {
	s.Assets = &AssetsState{Status: LoadLoading, Catalog: s.Assets.Catalog}
	return s
}

func reduceAssetsLoaded(s State, a Action) State {
	act := a.(AssetsLoaded)
	catalog := make(map[string]model.Asset, len(act.Assets))
	for _, asset := range act.Assets {
		if asset.ID == "" {
			continue
		}
		catalog[asset.ID] = asset
	}
	s.Assets = &AssetsState{Status: LoadSucceeded, Catalog: catalog}
	return s
}

func reduceAssetsFailed(s State, a Action) State {
	s.Assets = &AssetsState{Status: LoadFailed, Catalog: s.Assets.Catalog, Error: a.(AssetsFailed).Message}
	return s
}

// market

func reduceSetInitialPrices(s State, a Action) State {
	act := a.(SetInitialPrices)
	s.Market = &MarketState{
		Prices:    copyFloats(act.Quote.Prices, len(act.Quote.Prices)),
		Changes:   copyFloats(act.Quote.Changes24, len(act.Quote.Changes24)),
		UpdatedAt: act.At,
	}
	return s
}

// reduceMarketUpdate merges the quote over the existing data. Applying the
// same quote twice yields equal contents, and the second application keeps
// the MarketState pointer since nothing changed.
func reduceMarketUpdate(s State, a Action) State {
	act := a.(MarketUpdate)
	if !changes(s.Market.Prices, act.Quote.Prices) && !changes(s.Market.Changes, act.Quote.Changes24) {
		return s
	}
	prices := copyFloats(s.Market.Prices, len(s.Market.Prices)+len(act.Quote.Prices))
	for k, v := range act.Quote.Prices {
		prices[k] = v
	}
	changes := copyFloats(s.Market.Changes, len(s.Market.Changes)+len(act.Quote.Changes24))
	for k, v := range act.Quote.Changes24 {
		changes[k] = v
	}
	s.Market = &MarketState{Prices: prices, Changes: changes, UpdatedAt: act.At}
	return s
}

func changes(have, patch map[string]float64) bool {
	for k, v := range patch {
		if old, ok := have[k]; !ok || old != v {
			return true
		}
	}
	return false
}

func copyFloats(m map[string]float64, size int) map[string]float64 {
	out := make(map[string]float64, size)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// watchlist

func reduceSetWatchlist(s State, a Action) State {
	items := make(map[string]WatchlistItem, len(a.(SetWatchlist).Items))
	for sym, item := range a.(SetWatchlist).Items {
		if sym = model.NormalizeSymbol(sym); sym != "" {
			items[sym] = item
		}
	}
	s.Watchlist = &WatchlistState{Items: items}
	return s
}

func reduceWatchlistAdd(s State, a Action) State {
	act := a.(WatchlistAdd)
	sym := model.NormalizeSymbol(act.Symbol)
	if sym == "" {
		return s
	}
	if _, ok := s.Watchlist.Items[sym]; ok {
		return s
	}
	items := copyItems(s.Watchlist.Items)
	items[sym] = WatchlistItem{Notes: act.Notes}
	s.Watchlist = &WatchlistState{Items: items}
	return s
}

func reduceWatchlistRemove(s State, a Action) State {
	sym := model.NormalizeSymbol(a.(WatchlistRemove).Symbol)
	if _, ok := s.Watchlist.Items[sym]; !ok {
		return s
	}
	items := copyItems(s.Watchlist.Items)
	delete(items, sym)
	s.Watchlist = &WatchlistState{Items: items}
	return s
}

func reduceWatchlistNote(s State, a Action) State {
	act := a.(WatchlistNote)
	sym := model.NormalizeSymbol(act.Symbol)
	item, ok := s.Watchlist.Items[sym]
	if !ok || item.Notes == act.Notes {
		return s
	}
	items := copyItems(s.Watchlist.Items)
	items[sym] = WatchlistItem{Notes: act.Notes}
	s.Watchlist = &WatchlistState{Items: items}
	return s
}

func copyItems(m map[string]WatchlistItem) map[string]WatchlistItem {
	out := make(map[string]WatchlistItem, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ui

func withUI(s State, edit func(ui *UIState)) State {
	ui := *s.UI
	edit(&ui)
	s.UI = &ui
	return s
}

func reduceSelectAsset(s State, a Action) State {
	id := model.NormalizeSymbol(a.(SelectAsset).ID)
	if id == s.UI.SelectedAssetID {
		return s
	}
	return withUI(s, func(ui *UIState) {
		ui.SelectedAssetID = id
		ui.HistoricalSummary = nil
		ui.AnalysisReport = nil
		if ui.Loading == SectionHistory || ui.Loading == SectionAnalysis {
			ui.Status, ui.Loading = UIIdle, SectionNone
		}
	})
}

func reduceSearchResults(s State, a Action) State {
	act := a.(SearchResults)
	results := append([]model.AssetRef(nil), act.Results...)
	return withUI(s, func(ui *UIState) {
		ui.Search = &SearchState{Query: act.Query, Results: results}
	})
}

func reduceClearSearch(s State, _ Action) State {
	if s.UI.Search == emptySearch {
		return s
	}
	return withUI(s, func(ui *UIState) { ui.Search = emptySearch })
}

// reduceHistoricalSummary drops a summary that belongs to an asset other than
// the current selection.
func reduceHistoricalSummary(s State, a Action) State {
	summary := a.(HistoricalSummary).Summary
	if sel := s.UI.SelectedAssetID; sel != "" && model.NormalizeSymbol(summary.Symbol) != sel {
		return s
	}
	return withUI(s, func(ui *UIState) {
		ui.HistoricalSummary = &summary
		if ui.Loading == SectionHistory {
			ui.Status, ui.Loading = UIIdle, SectionNone
		}
	})
}

func reduceAnalysisReport(s State, a Action) State {
	report := a.(AnalysisReport).Report
	return withUI(s, func(ui *UIState) {
		ui.AnalysisReport = &report
		if ui.Loading == SectionAnalysis {
			ui.Status, ui.Loading = UIIdle, SectionNone
		}
	})
}

func reduceSetLoading(s State, a Action) State {
	section := a.(SetLoading).Section
	return withUI(s, func(ui *UIState) {
		ui.Status, ui.Loading = UILoading, section
	})
}

func reduceAddNotification(s State, a Action) State {
	n := a.(AddNotification).Notification
	return withUI(s, func(ui *UIState) {
		ui.Notifications = appendNotification(ui.Notifications, n)
	})
}

func appendNotification(list *NotificationList, n model.Notification) *NotificationList {
	items := make([]model.Notification, 0, len(list.Items)+1)
	items = append(items, list.Items...)
	return &NotificationList{Items: append(items, n)}
}

func reduceRemoveNotification(s State, a Action) State {
	id := a.(RemoveNotification).ID
	idx := -1
	for i, n := range s.UI.Notifications.Items {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s
	}
	return withUI(s, func(ui *UIState) {
		items := make([]model.Notification, 0, len(ui.Notifications.Items)-1)
		items = append(items, ui.Notifications.Items[:idx]...)
		items = append(items, ui.Notifications.Items[idx+1:]...)
		ui.Notifications = &NotificationList{Items: items}
	})
}

func reduceClearNotifications(s State, _ Action) State {
	if len(s.UI.Notifications.Items) == 0 {
		return s
	}
	return withUI(s, func(ui *UIState) { ui.Notifications = emptyNotifications })
}

func reduceTaskFailed(s State, a Action) State {
	act := a.(TaskFailed)
	if act.Section == SectionAssets {
		s.Assets = &AssetsState{Status: LoadFailed, Catalog: s.Assets.Catalog, Error: act.Notification.Message}
	}
	return withUI(s, func(ui *UIState) {
		ui.Notifications = appendNotification(ui.Notifications, act.Notification)
		if act.Section != SectionNone && ui.Loading == act.Section {
			ui.Status, ui.Loading = UIIdle, SectionNone
		}
	})
}

func reduceResetUI(s State, _ Action) State {
	s.UI = initialUI()
	return s
}
