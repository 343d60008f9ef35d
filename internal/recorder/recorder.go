package recorder

import (
	"time"

	"cryptodash/internal/model"
)

// DispatchEvent is one applied store action.
type DispatchEvent struct {
	Kind string
	At   time.Time
}

// Summary aggregates the journal for display.
type Summary struct {
	Dispatches    int
	Counts        map[string]int
	PriceTicks    int
	Notifications []model.Notification // newest first
}

// Recorder journals the session: applied actions, surfaced notifications and
// observed prices.
type Recorder interface {
	RecordDispatch(evt *DispatchEvent) error
	RecordNotification(n *model.Notification) error
	RecordPrices(q model.PriceQuote, at time.Time) error
	Summary(recent int) (*Summary, error)
	Close() error
}
