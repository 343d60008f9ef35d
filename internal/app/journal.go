package app

import (
	"time"

	"github.com/rs/zerolog"

	"cryptodash/internal/recorder"
	"cryptodash/internal/store"
)

// JournalObserver records every applied action, plus the notifications and
// prices it carries.
func JournalObserver(rec recorder.Recorder, now func() time.Time, log zerolog.Logger) store.Observer {
	if now == nil {
		now = time.Now
	}
	l := log.With().Str("component", "journal").Logger()
	return func(a store.Action) {
		if err := rec.RecordDispatch(&recorder.DispatchEvent{Kind: a.Kind(), At: now()}); err != nil {
			l.Warn().Err(err).Str("kind", a.Kind()).Msg("record dispatch")
		}
		var err error
		switch act := a.(type) {
		case store.AddNotification:
			err = rec.RecordNotification(&act.Notification)
		case store.TaskFailed:
			err = rec.RecordNotification(&act.Notification)
		case store.MarketUpdate:
			err = rec.RecordPrices(act.Quote, act.At)
		case store.SetInitialPrices:
			err = rec.RecordPrices(act.Quote, act.At)
		}
		if err != nil {
			l.Warn().Err(err).Str("kind", a.Kind()).Msg("record payload")
		}
	}
}
