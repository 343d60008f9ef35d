package calculator

import (
	"cryptodash/internal/model"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summarize reduces a daily series to its max, min and average price. The
// high and low of each day are used when present; days without them fall
// back to the close. Each day's average contribution is (high+low)/2. A
// series with no usable points yields nil statistics.
func Summarize(symbol string, days int, candles []model.Candle) model.HistoricalSummary {
	sum := model.HistoricalSummary{Symbol: model.NormalizeSymbol(symbol), Days: days}

	highs := make([]float64, 0, len(candles))
	lows := make([]float64, 0, len(candles))
	mids := make([]float64, 0, len(candles))
	for _, c := range candles {
		h, l := c.High, c.Low
		if h == 0 || l == 0 {
			h, l = c.Close, c.Close
		}
		if h == 0 && l == 0 {
			continue
		}
		highs = append(highs, h)
		lows = append(lows, l)
		mids = append(mids, (h+l)/2)
	}

	sum.Points = len(mids)
	if sum.Points == 0 {
		return sum
	}

	maxPrice := floats.Max(highs)
	minPrice := floats.Min(lows)
	avgPrice := stat.Mean(mids, nil)
	sum.MaxPrice = &maxPrice
	sum.MinPrice = &minPrice
	sum.AvgPrice = &avgPrice
	return sum
}

// RangePosition returns where price sits within [low, high], clamped to 0..1.
// A flat range yields 0.5.
func RangePosition(price, high, low float64) float64 {
	if high <= low {
		return 0.5
	}
	pos := (price - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos
}
