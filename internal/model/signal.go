package model

// HistoricalSummary reduces a daily series. Statistics are nil when the series
// had no usable points.
type HistoricalSummary struct {
	Symbol   string   `msgpack:"symbol"`
	Days     int      `msgpack:"days"`
	Points   int      `msgpack:"points"`
	MaxPrice *float64 `msgpack:"max_price"`
	MinPrice *float64 `msgpack:"min_price"`
	AvgPrice *float64 `msgpack:"avg_price"`
}

// HasData reports whether the summary carries statistics.
func (s HistoricalSummary) HasData() bool {
	return s.MaxPrice != nil && s.MinPrice != nil && s.AvgPrice != nil
}

// Performer is one side of an analysis report.
type Performer struct {
	Symbol string  `msgpack:"symbol"`
	Price  float64 `msgpack:"price"`
	Change float64 `msgpack:"change"`
}

// AnalysisReport is the output of a named strategy run.
type AnalysisReport struct {
	Strategy string    `msgpack:"strategy"`
	Metric   string    `msgpack:"metric"`
	Best     Performer `msgpack:"best"`
	Worst    Performer `msgpack:"worst"`
	Scanned  int       `msgpack:"scanned"`
	Skipped  []string  `msgpack:"skipped"`
}

// MarketData is the slice of market state handed to strategies.
type MarketData struct {
	Prices    map[string]float64 `msgpack:"prices"`
	Changes24 map[string]float64 `msgpack:"changes"`
}
