package worker

import (
	"context"

	"github.com/rs/zerolog"

	"cryptodash/internal/message"
	"cryptodash/internal/strategy"
)

// NewAnalysisTask runs a named strategy over a watchlist on RUN_ANALYSIS.
func NewAnalysisTask(log zerolog.Logger) Task {
	t := &oneShot{base: newBase(NameAnalysis, log)}
	t.handle = func(_ context.Context, cmd message.Envelope) (message.Envelope, bool, error) {
		if cmd.Kind != message.RunAnalysis {
			return message.Envelope{}, false, errUnsupported(NameAnalysis, cmd.Kind)
		}
		var req message.AnalysisPayload
		if err := cmd.Decode(&req); err != nil {
			return message.Envelope{}, false, err
		}
		report, err := strategy.Run(req.StrategyName, req.Watchlist, req.MarketData)
		if err != nil {
			return message.Envelope{}, false, err
		}
		env, err := message.New(message.AnalysisReport, report)
		return env, err == nil, err
	}
	return t
}
