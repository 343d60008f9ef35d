package strategy

import (
	"fmt"
	"sort"
	"strings"

	"cryptodash/internal/model"
)

// Strategy names.
const (
	BestPerformer = "BEST_PERFORMER"
	TopMover      = "TOP_MOVER"
)

// Default is used when no strategy name is given.
const Default = BestPerformer

// Strategy analyzes a watchlist against current market data.
type Strategy interface {
	Name() string
	Analyze(watchlist []string, data model.MarketData) (model.AnalysisReport, error)
}

// registry maps a strategy name to its implementation.
var registry = map[string]Strategy{
	BestPerformer: bestPerformer{},
	TopMover:      topMover{},
}

// Names returns the registered strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a strategy by name. An empty name selects Default; any other
// unknown name is a ValidationError.
func Lookup(name string) (Strategy, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" {
		key = Default
	}
	s, ok := registry[key]
	if !ok {
		return nil, &model.ValidationError{
			Field:  "strategy",
			Reason: fmt.Sprintf("%q not found (available: %s)", name, strings.Join(Names(), ", ")),
		}
	}
	return s, nil
}

// Run looks up and runs a strategy.
func Run(name string, watchlist []string, data model.MarketData) (model.AnalysisReport, error) {
	s, err := Lookup(name)
	if err != nil {
		return model.AnalysisReport{}, err
	}
	return s.Analyze(watchlist, data)
}

// rank scans the watchlist in order and keeps the symbols with the highest and
// lowest metric. Symbols for which metric has no value are skipped, never
// treated as zero. Ties keep the first symbol seen.
func rank(name, metric string, watchlist []string, data model.MarketData, value func(sym string) (float64, bool)) (model.AnalysisReport, error) {
	report := model.AnalysisReport{Strategy: name, Metric: metric}
	syms := model.NormalizeSymbols(watchlist)
	if len(syms) == 0 {
		return report, &model.ValidationError{Field: "watchlist", Reason: "empty"}
	}

	var bestV, worstV float64
	found := false
	for _, sym := range syms {
		v, ok := value(sym)
		if !ok {
			report.Skipped = append(report.Skipped, sym)
			continue
		}
		report.Scanned++
		if !found || v > bestV {
			bestV = v
			report.Best = performer(sym, data)
		}
		if !found || v < worstV {
			worstV = v
			report.Worst = performer(sym, data)
		}
		found = true
	}
	if !found {
		return report, &model.ValidationError{Field: "marketData", Reason: fmt.Sprintf("no %s data for any watchlist symbol", metric)}
	}
	return report, nil
}

func performer(sym string, data model.MarketData) model.Performer {
	return model.Performer{Symbol: sym, Price: data.Prices[sym], Change: data.Changes24[sym]}
}
