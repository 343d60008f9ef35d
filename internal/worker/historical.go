package worker

import (
	"context"

	"github.com/rs/zerolog"

	"cryptodash/internal/calculator"
	"cryptodash/internal/gateway"
	"cryptodash/internal/message"
	"cryptodash/internal/model"
)

// DefaultHistoryDays is the lookback of GET_SUMMARY.
const DefaultHistoryDays = 365

// NewHistoricalTask fetches a daily series on GET_SUMMARY and reduces it to
// max, min and average prices.
func NewHistoricalTask(api gateway.MarketAPI, days int, log zerolog.Logger) Task {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	t := &oneShot{base: newBase(NameHistorical, log)}
	t.handle = func(ctx context.Context, cmd message.Envelope) (message.Envelope, bool, error) {
		if cmd.Kind != message.GetSummary {
			return message.Envelope{}, false, errUnsupported(NameHistorical, cmd.Kind)
		}
		var req message.SummaryPayload
		if err := cmd.Decode(&req); err != nil {
			return message.Envelope{}, false, err
		}
		id := model.NormalizeSymbol(req.AssetID)
		if id == "" {
			return message.Envelope{}, false, &model.ValidationError{Field: "assetId", Reason: "must not be empty"}
		}
		candles, err := api.FetchDailyHistory(ctx, id, days)
		if err != nil {
			return message.Envelope{}, false, err
		}
		summary := calculator.Summarize(id, days, candles)
		t.log.Debug().Str("asset", id).Int("points", summary.Points).Msg("summary computed")
		env, err := message.New(message.HistoricalSummary, summary)
		return env, err == nil, err
	}
	return t
}
