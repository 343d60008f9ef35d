package model

import "time"

// Candle represents a single daily bar of a historical series.
type Candle struct {
	Time  time.Time `msgpack:"time"`
	Open  float64   `msgpack:"open"`
	High  float64   `msgpack:"high"`
	Low   float64   `msgpack:"low"`
	Close float64   `msgpack:"close"`
}

// PriceQuote is the result of a multi-asset price fetch. Both maps are keyed
// by canonical symbol; a missing key means the provider returned nothing.
type PriceQuote struct {
	Prices    map[string]float64 `msgpack:"prices"`
	Changes24 map[string]float64 `msgpack:"changes"`
}

// Empty reports whether the quote carries no prices at all.
func (q PriceQuote) Empty() bool {
	return len(q.Prices) == 0 && len(q.Changes24) == 0
}
