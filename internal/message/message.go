// Package message defines the envelopes exchanged between the facade and the
// background tasks. Payloads are msgpack-encoded when an envelope is built, so
// the receiver always decodes a private copy and no memory is shared across
// the boundary.
package message

import (
	"fmt"

	"cryptodash/internal/model"

	"github.com/vmihailenco/msgpack/v5"
)

// Kind names a command or result.
type Kind string

// Commands.
const (
	LoadAssets   Kind = "LOAD_ASSETS"
	StartFeed    Kind = "START_FEED"
	StopFeed     Kind = "STOP_FEED"
	InitAssets   Kind = "INIT_ASSETS"
	Search       Kind = "SEARCH"
	FilterAssets Kind = "FILTER_ASSETS"
	GetSummary   Kind = "GET_SUMMARY"
	RunAnalysis  Kind = "RUN_ANALYSIS"
)

// Results.
const (
	AssetsLoaded      Kind = "ASSETS_LOADED"
	MarketUpdate      Kind = "MARKET_UPDATE"
	Alert             Kind = "ALERT"
	SearchResults     Kind = "SEARCH_RESULTS"
	HistoricalSummary Kind = "HISTORICAL_SUMMARY"
	AnalysisReport    Kind = "ANALYSIS_REPORT"
	Error             Kind = "ERROR"
)

// Envelope is one message on a task channel.
type Envelope struct {
	Kind    Kind
	Payload []byte
}

// New encodes payload into an envelope. A nil payload yields an empty body.
func New(kind Kind, payload any) (Envelope, error) {
	env := Envelope{Kind: kind}
	if payload == nil {
		return env, nil
	}
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", kind, err)
	}
	env.Payload = b
	return env, nil
}

// Must is New for payload types that always encode.
func Must(kind Kind, payload any) Envelope {
	env, err := New(kind, payload)
	if err != nil {
		panic(err)
	}
	return env
}

// Decode copies the payload into out.
func (e Envelope) Decode(out any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("decode %s: empty payload", e.Kind)
	}
	if err := msgpack.Unmarshal(e.Payload, out); err != nil {
		return fmt.Errorf("decode %s: %w", e.Kind, err)
	}
	return nil
}

// StartFeedPayload carries the symbols to poll.
type StartFeedPayload struct {
	IDs []string `msgpack:"ids"`
}

// CatalogPayload carries a full catalog.
type CatalogPayload struct {
	Assets []model.Asset `msgpack:"assets"`
}

// SearchPayload carries a query and, for FILTER_ASSETS, the catalog to scan.
type SearchPayload struct {
	Query  string        `msgpack:"query"`
	Assets []model.Asset `msgpack:"assets,omitempty"`
}

// SearchResultsPayload carries the matches for a query.
type SearchResultsPayload struct {
	Query   string           `msgpack:"query"`
	Results []model.AssetRef `msgpack:"results"`
}

// SummaryPayload requests the historical summary of one asset.
type SummaryPayload struct {
	AssetID string `msgpack:"asset_id"`
}

// AnalysisPayload requests a strategy run.
type AnalysisPayload struct {
	StrategyName string           `msgpack:"strategy_name"`
	Watchlist    []string         `msgpack:"watchlist"`
	MarketData   model.MarketData `msgpack:"market_data"`
}
