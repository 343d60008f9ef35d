package message

import (
	"testing"

	"cryptodash/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_DecodeIsACopy(t *testing.T) {
	prices := map[string]float64{"BTC": 50000}
	env := Must(MarketUpdate, model.PriceQuote{Prices: prices})

	// mutate the sender's map after posting
	prices["BTC"] = 1

	var got model.PriceQuote
	require.NoError(t, env.Decode(&got))
	assert.Equal(t, 50000.0, got.Prices["BTC"])

	got.Prices["ETH"] = 3000
	assert.NotContains(t, prices, "ETH")
}

func TestEnvelope_EmptyPayload(t *testing.T) {
	env := Must(StopFeed, nil)
	assert.Equal(t, StopFeed, env.Kind)
	assert.Empty(t, env.Payload)

	var p StartFeedPayload
	assert.Error(t, env.Decode(&p))
}

func TestEnvelope_NilStatisticsSurvive(t *testing.T) {
	env := Must(HistoricalSummary, model.HistoricalSummary{Symbol: "BTC"})

	var got model.HistoricalSummary
	require.NoError(t, env.Decode(&got))
	assert.Equal(t, "BTC", got.Symbol)
	assert.Nil(t, got.MaxPrice)
	assert.False(t, got.HasData())
}
