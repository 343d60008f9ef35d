package recorder

import (
	"time"

	"cryptodash/internal/model"
)

// NoopRecorder is a no-op implementation used when journaling is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordDispatch(_ *DispatchEvent) error              { return nil }
func (n *NoopRecorder) RecordNotification(_ *model.Notification) error     { return nil }
func (n *NoopRecorder) RecordPrices(_ model.PriceQuote, _ time.Time) error { return nil }
func (n *NoopRecorder) Summary(_ int) (*Summary, error)                    { return &Summary{Counts: map[string]int{}}, nil }
func (n *NoopRecorder) Close() error                                       { return nil }
