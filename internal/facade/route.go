package facade

import (
	"cryptodash/internal/message"
	"cryptodash/internal/model"
	"cryptodash/internal/store"
)

func (f *Facade) routeBoot(env message.Envelope) {
	switch env.Kind {
	case message.AssetsLoaded:
		var p message.CatalogPayload
		if !f.decode(env, &p) {
			return
		}
		f.store.Dispatch(store.AssetsLoaded{Assets: p.Assets})
		f.tasks.Search.Post(message.Envelope{Kind: message.InitAssets, Payload: env.Payload})
		f.seeded = true
	case message.Error:
		f.fail(env, store.SectionAssets)
	default:
		f.unexpected("boot", env)
	}
}

// routePoll maps feed results. Poll errors are transient and only logged.
func (f *Facade) routePoll(env message.Envelope) {
	switch env.Kind {
	case message.MarketUpdate:
		var q model.PriceQuote
		if !f.decode(env, &q) {
			return
		}
		f.store.Dispatch(store.MarketUpdate{Quote: q, At: f.now()})
	case message.Alert:
		var n model.Notification
		if !f.decode(env, &n) {
			return
		}
		f.store.Dispatch(store.AddNotification{Notification: n})
	case message.Error:
		var n model.Notification
		if f.decode(env, &n) {
			f.log.Warn().Str("error", n.Message).Msg("market feed tick failed")
		}
	default:
		f.unexpected("poll", env)
	}
}

func (f *Facade) routeSearch(env message.Envelope) {
	switch env.Kind {
	case message.SearchResults:
		var p message.SearchResultsPayload
		if !f.decode(env, &p) {
			return
		}
		f.store.Dispatch(store.SearchResults{Query: p.Query, Results: p.Results})
	case message.Error:
		f.fail(env, store.SectionSearch)
	default:
		f.unexpected("search", env)
	}
}

func (f *Facade) routeHistorical(env message.Envelope) {
	switch env.Kind {
	case message.HistoricalSummary:
		var s model.HistoricalSummary
		if !f.decode(env, &s) {
			return
		}
		f.store.Dispatch(store.HistoricalSummary{Summary: s})
	case message.Error:
		f.fail(env, store.SectionHistory)
	default:
		f.unexpected("historical", env)
	}
}

func (f *Facade) routeAnalysis(env message.Envelope) {
	switch env.Kind {
	case message.AnalysisReport:
		var r model.AnalysisReport
		if !f.decode(env, &r) {
			return
		}
		f.store.Dispatch(store.AnalysisReport{Report: r})
	case message.Error:
		f.fail(env, store.SectionAnalysis)
	default:
		f.unexpected("analysis", env)
	}
}

func (f *Facade) fail(env message.Envelope, section store.Section) {
	var n model.Notification
	if !f.decode(env, &n) {
		n = model.NewNotification(model.SeverityError, "unexpected error")
	}
	f.store.Dispatch(store.TaskFailed{Section: section, Notification: n})
}

func (f *Facade) decode(env message.Envelope, out any) bool {
	if err := env.Decode(out); err != nil {
		f.log.Error().Err(err).Msg("dropping undecodable result")
		return false
	}
	return true
}

func (f *Facade) unexpected(task string, env message.Envelope) {
	f.log.Warn().Str("task", task).Str("kind", string(env.Kind)).Msg("unexpected result")
}
