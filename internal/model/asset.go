package model

import "strings"

// Asset is one entry of the catalog.
type Asset struct {
	ID       string `msgpack:"id"`
	Symbol   string `msgpack:"symbol"`
	Name     string `msgpack:"name"`
	ImageURL string `msgpack:"image_url"`
}

// AssetRef is the trimmed view of an Asset used by search results.
type AssetRef struct {
	ID     string `msgpack:"id"`
	Symbol string `msgpack:"symbol"`
	Name   string `msgpack:"name"`
}

// Ref returns the search-result view of the asset.
func (a Asset) Ref() AssetRef {
	return AssetRef{ID: a.ID, Symbol: a.Symbol, Name: a.Name}
}

// NormalizeSymbol returns the canonical catalog key for a symbol. Every
// lookup (catalog, prices, watchlist, selection) goes through it.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeSymbols normalizes and de-duplicates a symbol list, keeping order.
func NormalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		n := NormalizeSymbol(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
