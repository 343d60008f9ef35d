package worker

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"cryptodash/internal/message"
	"cryptodash/internal/model"
)

// DefaultMaxResults caps a search result list.
const DefaultMaxResults = 20

// NewSearchTask filters assets by a case-insensitive substring of symbol or
// name. INIT_ASSETS seeds the catalog that SEARCH scans; FILTER_ASSETS scans
// the catalog carried by the command instead.
func NewSearchTask(maxResults int, log zerolog.Logger) Task {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	var catalog []model.Asset
	t := &oneShot{base: newBase(NameSearch, log)}
	t.handle = func(_ context.Context, cmd message.Envelope) (message.Envelope, bool, error) {
		switch cmd.Kind {
		case message.InitAssets:
			var p message.CatalogPayload
			if err := cmd.Decode(&p); err != nil {
				return message.Envelope{}, false, err
			}
			catalog = sortAssets(p.Assets)
			t.log.Debug().Int("assets", len(catalog)).Msg("catalog seeded")
			return message.Envelope{}, false, nil
		case message.Search, message.FilterAssets:
			var p message.SearchPayload
			if err := cmd.Decode(&p); err != nil {
				return message.Envelope{}, false, err
			}
			scan := catalog
			if cmd.Kind == message.FilterAssets {
				scan = sortAssets(p.Assets)
			}
			results := Filter(scan, p.Query, maxResults)
			env, err := message.New(message.SearchResults, message.SearchResultsPayload{Query: p.Query, Results: results})
			return env, err == nil, err
		default:
			return message.Envelope{}, false, errUnsupported(NameSearch, cmd.Kind)
		}
	}
	return t
}

func sortAssets(assets []model.Asset) []model.Asset {
	out := append([]model.Asset(nil), assets...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Filter returns at most limit assets whose symbol or name contains query,
// ignoring case. Exact symbol matches come first, then symbol prefixes, then
// the rest, each group in input order. An empty query matches nothing and
// scans nothing.
func Filter(assets []model.Asset, query string, limit int) []model.AssetRef {
	q := strings.ToLower(strings.TrimSpace(query))
	results := []model.AssetRef{}
	if q == "" || limit <= 0 {
		return results
	}

	var exact, prefix, other []model.AssetRef
	for _, a := range assets {
		sym := strings.ToLower(a.Symbol)
		switch {
		case sym == q:
			exact = append(exact, a.Ref())
		case strings.HasPrefix(sym, q):
			prefix = append(prefix, a.Ref())
		case strings.Contains(sym, q) || strings.Contains(strings.ToLower(a.Name), q):
			other = append(other, a.Ref())
		}
	}
	for _, group := range [][]model.AssetRef{exact, prefix, other} {
		for _, r := range group {
			if len(results) == limit {
				return results
			}
			results = append(results, r)
		}
	}
	return results
}
