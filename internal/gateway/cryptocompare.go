package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"cryptodash/internal/model"
)

// CryptoCompare implements MarketAPI using the CryptoCompare REST API.
type CryptoCompare struct {
	BaseURL  string
	ImageURL string
	APIKey   string
	Client   *http.Client
}

// NewCryptoCompare creates a market client with optional proxy support.
func NewCryptoCompare(baseURL, apiKey string, timeout time.Duration, proxyURL string) *CryptoCompare {
	return &CryptoCompare{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		ImageURL: "https://www.cryptocompare.com",
		APIKey:   apiKey,
		Client:   newHTTPClient(timeout, proxyURL),
	}
}

// ccEnvelope is the error shape shared by every CryptoCompare endpoint.
type ccEnvelope struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
}

func (e ccEnvelope) err(op string) error {
	if e.Response == "Error" {
		return &APIError{Op: op, Message: e.Message}
	}
	return nil
}

type ccCoin struct {
	Symbol   string `json:"Symbol"`
	CoinName string `json:"CoinName"`
	ImageURL string `json:"ImageUrl"`
}

func (c *CryptoCompare) endpoint(path string, q url.Values) string {
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}
	return fmt.Sprintf("%s%s?%s", c.BaseURL, path, q.Encode())
}

// FetchAllAssets loads the full coin list.
func (c *CryptoCompare) FetchAllAssets(ctx context.Context) ([]model.Asset, error) {
	const op = "fetch all assets"
	req, err := newGet(ctx, c.endpoint("/data/all/coinlist", url.Values{}))
	if err != nil {
		return nil, err
	}
	var result struct {
		ccEnvelope
		Data map[string]ccCoin `json:"Data"`
	}
	if err := doJSON(c.Client, req, op, &result); err != nil {
		return nil, err
	}
	if err := result.err(op); err != nil {
		return nil, err
	}

	assets := make([]model.Asset, 0, len(result.Data))
	for _, coin := range result.Data {
		if coin.Symbol == "" {
			continue
		}
		sym := model.NormalizeSymbol(coin.Symbol)
		a := model.Asset{ID: sym, Symbol: sym, Name: coin.CoinName}
		if coin.ImageURL != "" {
			a.ImageURL = c.ImageURL + coin.ImageURL
		}
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Symbol < assets[j].Symbol })
	return assets, nil
}

// FetchPrices loads the USD price and 24h percent change for each symbol.
func (c *CryptoCompare) FetchPrices(ctx context.Context, ids []string) (model.PriceQuote, error) {
	const op = "fetch prices"
	quote := model.PriceQuote{Prices: map[string]float64{}, Changes24: map[string]float64{}}
	syms := model.NormalizeSymbols(ids)
	if len(syms) == 0 {
		return quote, nil
	}

	q := url.Values{}
	q.Set("fsyms", strings.Join(syms, ","))
	q.Set("tsyms", "USD")
	req, err := newGet(ctx, c.endpoint("/data/pricemultifull", q))
	if err != nil {
		return quote, err
	}
	var result struct {
		ccEnvelope
		Raw map[string]map[string]struct {
			Price           float64 `json:"PRICE"`
			ChangePct24Hour float64 `json:"CHANGEPCT24HOUR"`
		} `json:"RAW"`
	}
	if err := doJSON(c.Client, req, op, &result); err != nil {
		return quote, err
	}
	if err := result.err(op); err != nil {
		return quote, err
	}

	for sym, byCurrency := range result.Raw {
		usd, ok := byCurrency["USD"]
		if !ok || usd.Price == 0 {
			continue
		}
		key := model.NormalizeSymbol(sym)
		quote.Prices[key] = usd.Price
		quote.Changes24[key] = usd.ChangePct24Hour
	}
	return quote, nil
}

// FetchDailyHistory loads up to days daily candles, oldest first.
func (c *CryptoCompare) FetchDailyHistory(ctx context.Context, id string, days int) ([]model.Candle, error) {
	const op = "fetch daily history"
	q := url.Values{}
	q.Set("fsym", model.NormalizeSymbol(id))
	q.Set("tsym", "USD")
	q.Set("limit", strconv.Itoa(days))
	req, err := newGet(ctx, c.endpoint("/data/v2/histoday", q))
	if err != nil {
		return nil, err
	}
	var result struct {
		ccEnvelope
		Data struct {
			Data []struct {
				Time  int64   `json:"time"`
				Open  float64 `json:"open"`
				High  float64 `json:"high"`
				Low   float64 `json:"low"`
				Close float64 `json:"close"`
			} `json:"Data"`
		} `json:"Data"`
	}
	if err := doJSON(c.Client, req, op, &result); err != nil {
		return nil, err
	}
	if err := result.err(op); err != nil {
		return nil, err
	}

	candles := make([]model.Candle, 0, len(result.Data.Data))
	for _, d := range result.Data.Data {
		if d.Open == 0 && d.High == 0 && d.Low == 0 && d.Close == 0 {
			continue // days before listing
		}
		candles = append(candles, model.Candle{
			Time:  time.Unix(d.Time, 0).UTC(),
			Open:  d.Open,
			High:  d.High,
			Low:   d.Low,
			Close: d.Close,
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return candles, nil
}
