package strategy

import "cryptodash/internal/model"

// bestPerformer ranks the watchlist by current USD price.
type bestPerformer struct{}

func (bestPerformer) Name() string { return BestPerformer }

func (bestPerformer) Analyze(watchlist []string, data model.MarketData) (model.AnalysisReport, error) {
	return rank(BestPerformer, "price", watchlist, data, func(sym string) (float64, bool) {
		p, ok := data.Prices[sym]
		return p, ok
	})
}

// topMover ranks the watchlist by 24h percent change.
type topMover struct{}

func (topMover) Name() string { return TopMover }

func (topMover) Analyze(watchlist []string, data model.MarketData) (model.AnalysisReport, error) {
	return rank(TopMover, "change24h", watchlist, data, func(sym string) (float64, bool) {
		c, ok := data.Changes24[sym]
		return c, ok
	})
}
