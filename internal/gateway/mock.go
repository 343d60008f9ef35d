package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"cryptodash/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// Operation names used by Mock for failure injection and call counting.
const (
	OpLogin     = "login"
	OpProfile   = "get profile"
	OpWatchlist = "get watchlist"
	OpAssets    = "fetch all assets"
	OpPrices    = "fetch prices"
	OpHistory   = "fetch daily history"
)

// Mock is a deterministic in-memory Gateway for offline runs and tests.
type Mock struct {
	mu        sync.Mutex
	assets    []model.Asset
	prices    map[string]float64
	changes   map[string]float64
	history   map[string][]model.Candle
	watchlist []WatchlistEntry
	profile   model.UserProfile
	secret    []byte
	tokenTTL  time.Duration
	failures  map[string]error
	blocks    map[string]chan struct{}
	calls     map[string]int
}

var mockCoins = []struct {
	sym, name string
	price     float64
	change    float64
}{
	{"BTC", "Bitcoin", 50000, 1.8},
	{"ETH", "Ethereum", 3000, 2.4},
	{"SOL", "Solana", 140, -3.1},
	{"ADA", "Cardano", 0.45, 0.7},
	{"XRP", "XRP", 0.52, -0.4},
	{"DOGE", "Dogecoin", 0.12, 5.2},
	{"DOT", "Polkadot", 6.8, -1.2},
	{"LINK", "Chainlink", 14.2, 0.9},
	{"MATIC", "Polygon", 0.71, -2.2},
	{"AVAX", "Avalanche", 34.5, 3.3},
	{"LTC", "Litecoin", 82, -0.6},
	{"BCH", "Bitcoin Cash", 410, 1.1},
	{"XLM", "Stellar", 0.11, 0.2},
	{"UNI", "Uniswap", 7.4, -4.0},
	{"ETC", "Ethereum Classic", 26, 0.3},
	{"BNB", "BNB", 580, 0.8},
	{"TRX", "TRON", 0.12, 0.1},
	{"ATOM", "Cosmos", 8.9, -1.7},
}

// NewMock creates a Mock seeded with a small catalog and fixed prices.
func NewMock() *Mock {
	m := &Mock{
		prices:   make(map[string]float64),
		changes:  make(map[string]float64),
		history:  make(map[string][]model.Candle),
		secret:   []byte("cryptodash-dev-secret"),
		tokenTTL: time.Hour,
		failures: make(map[string]error),
		blocks:   make(map[string]chan struct{}),
		calls:    make(map[string]int),
		profile: model.UserProfile{
			ID: 2, Email: "janet.weaver@reqres.in", FirstName: "Janet", LastName: "Weaver",
		},
	}
	for _, c := range mockCoins {
		m.assets = append(m.assets, model.Asset{
			ID:     c.sym,
			Symbol: c.sym,
			Name:   c.name,
		})
		m.prices[c.sym] = c.price
		m.changes[c.sym] = c.change
	}
	return m
}

func (m *Mock) Name() string { return "mock" }

// SetAssets replaces the catalog.
func (m *Mock) SetAssets(assets []model.Asset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets = append([]model.Asset(nil), assets...)
}

// SetPrice sets the current price and 24h change of a symbol.
func (m *Mock) SetPrice(symbol string, price, change float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := model.NormalizeSymbol(symbol)
	m.prices[key] = price
	m.changes[key] = change
}

// SetHistory fixes the daily series returned for a symbol. An empty slice
// means the provider has no data for it.
func (m *Mock) SetHistory(symbol string, candles []model.Candle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[model.NormalizeSymbol(symbol)] = candles
}

// SetWatchlist fixes the remote watchlist.
func (m *Mock) SetWatchlist(entries []WatchlistEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchlist = entries
}

// Fail makes every call to op return err until cleared with Fail(op, nil).
func (m *Mock) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Block makes calls to op wait until the returned release func is called or
// the call's context ends.
func (m *Mock) Block(op string) (release func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	m.blocks[op] = ch
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if m.blocks[op] == ch {
				delete(m.blocks, op)
			}
			m.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many times op has been invoked.
func (m *Mock) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// enter counts the call, waits on any block and returns an injected failure.
func (m *Mock) enter(ctx context.Context, op string) error {
	m.mu.Lock()
	m.calls[op]++
	block := m.blocks[op]
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return &NetworkError{Op: op, Err: ctx.Err()}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[op]
}

// Login accepts any non-empty credentials and issues a signed session token.
func (m *Mock) Login(ctx context.Context, email, password string) (model.LoginResult, error) {
	if err := m.enter(ctx, OpLogin); err != nil {
		return model.LoginResult{}, err
	}
	if email == "" || password == "" {
		return model.LoginResult{}, &APIError{Op: OpLogin, Status: 400, Message: "Missing email or password"}
	}

	now := time.Now()
	exp := now.Add(m.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	return model.LoginResult{UserID: m.profile.ID, Token: signed, ExpiresAt: exp.Truncate(time.Second)}, nil
}

func (m *Mock) GetProfile(ctx context.Context, id int) (model.UserProfile, error) {
	if err := m.enter(ctx, OpProfile); err != nil {
		return model.UserProfile{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != m.profile.ID {
		return model.UserProfile{}, &APIError{Op: OpProfile, Status: 404, Message: "user not found"}
	}
	return m.profile, nil
}

func (m *Mock) GetWatchlist(ctx context.Context, _ int) ([]WatchlistEntry, error) {
	if err := m.enter(ctx, OpWatchlist); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]WatchlistEntry(nil), m.watchlist...), nil
}

func (m *Mock) FetchAllAssets(ctx context.Context) ([]model.Asset, error) {
	if err := m.enter(ctx, OpAssets); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Asset(nil), m.assets...), nil
}

func (m *Mock) FetchPrices(ctx context.Context, ids []string) (model.PriceQuote, error) {
	if err := m.enter(ctx, OpPrices); err != nil {
		return model.PriceQuote{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	quote := model.PriceQuote{Prices: map[string]float64{}, Changes24: map[string]float64{}}
	for _, id := range model.NormalizeSymbols(ids) {
		if p, ok := m.prices[id]; ok {
			quote.Prices[id] = p
			quote.Changes24[id] = m.changes[id]
		}
	}
	return quote, nil
}

func (m *Mock) FetchDailyHistory(ctx context.Context, id string, days int) ([]model.Candle, error) {
	if err := m.enter(ctx, OpHistory); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := model.NormalizeSymbol(id)
	if candles, ok := m.history[key]; ok {
		if len(candles) > days {
			candles = candles[len(candles)-days:]
		}
		return append([]model.Candle(nil), candles...), nil
	}
	price, ok := m.prices[key]
	if !ok {
		return nil, &APIError{Op: OpHistory, Message: fmt.Sprintf("no history for %s", key)}
	}
	return generateMockCandles(price, days), nil
}

// generateMockCandles builds a gently trending series ending at basePrice.
func generateMockCandles(basePrice float64, count int) []model.Candle {
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]model.Candle, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count+1)*0.001)
		candles[i] = model.Candle{
			Time:  end.AddDate(0, 0, -(count - 1 - i)),
			Open:  p * 0.999,
			High:  p * 1.005,
			Low:   p * 0.995,
			Close: p,
		}
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return candles
}

// TokenExpiry reads the exp claim of a JWT session token without verifying
// its signature. ok is false for opaque tokens.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// ErrMockOffline is a convenience transport failure for tests.
var ErrMockOffline = errors.New("connection refused")
