// Package gateway is the boundary to the remote REST services: credential
// exchange, profile and watchlist lookup, the asset catalog, price quotes and
// daily history.
package gateway

import (
	"context"

	"cryptodash/internal/model"
)

// WatchlistEntry is one row of a user's remote watchlist.
type WatchlistEntry struct {
	Symbol string `json:"symbol"`
	Notes  string `json:"notes"`
}

// AuthAPI covers the session endpoints.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (model.LoginResult, error)
	GetProfile(ctx context.Context, id int) (model.UserProfile, error)
	GetWatchlist(ctx context.Context, userID int) ([]WatchlistEntry, error)
}

// MarketAPI covers the market data endpoints used by the background tasks.
type MarketAPI interface {
	FetchAllAssets(ctx context.Context) ([]model.Asset, error)
	FetchPrices(ctx context.Context, ids []string) (model.PriceQuote, error)
	FetchDailyHistory(ctx context.Context, id string, days int) ([]model.Candle, error)
}

// Gateway is the full set of remote operations.
type Gateway interface {
	AuthAPI
	MarketAPI
	Name() string
}

// Client joins an auth provider and a market data provider into one Gateway.
type Client struct {
	AuthAPI
	MarketAPI
}

// NewClient creates a Gateway from its two halves.
func NewClient(auth AuthAPI, market MarketAPI) *Client {
	return &Client{AuthAPI: auth, MarketAPI: market}
}

func (c *Client) Name() string { return "http" }
