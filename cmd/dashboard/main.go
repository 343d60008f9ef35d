package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"cryptodash/internal/app"
	"cryptodash/internal/config"
	"cryptodash/internal/facade"
	"cryptodash/internal/gateway"
	"cryptodash/internal/logger"
	"cryptodash/internal/reactor"
	"cryptodash/internal/recorder"
	"cryptodash/internal/render"
	"cryptodash/internal/scheduler"
	"cryptodash/internal/store"
	"cryptodash/internal/worker"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		bootLog := logger.NewWithWriter(logger.Config{}, os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	// stdout belongs to the dashboard
	log := logger.NewWithWriter(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty}, os.Stderr)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("mode", cfg.Gateway.Mode).Msg("cryptodash starting")

	gw := newGateway(cfg)
	log.Info().Str("gateway", gw.Name()).Msg("gateway ready")

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	st := store.New(log, store.WithObserver(app.JournalObserver(rec, nil, log)))

	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	rules := make([]worker.AlertRule, 0, len(cfg.Polling.Alerts))
	for _, a := range cfg.Polling.Alerts {
		rules = append(rules, worker.AlertRule{Symbol: a.Symbol, Above: a.Above, Below: a.Below})
	}
	f := facade.New(st, facade.Tasks{
		Boot:       worker.NewBootTask(gw, log),
		Poll:       worker.NewPollTask(gw, sched.Factory(), cfg.Polling.Interval, rules, log),
		Search:     worker.NewSearchTask(cfg.Search.MaxResults, log),
		Historical: worker.NewHistoricalTask(gw, cfg.History.Days, log),
		Analysis:   worker.NewAnalysisTask(log),
	}, log)

	dash := app.New(gw, gw, st, f, rec, app.Options{
		DefaultWatchlist: cfg.Watchlist.Default,
		MinQueryLen:      cfg.Search.MinQueryLen,
		Debounce:         cfg.Search.Debounce,
	}, log)
	defer dash.Close()

	view := render.NewText(os.Stdout, nil)
	detach := reactor.New(st, view, dash, scheduler.RealAfter, cfg.Notifications.Display, log).Attach()
	defer detach()

	if _, err := sched.Every("@every "+cfg.Session.CheckEvery.String(), dash.CheckSession); err != nil {
		log.Fatal().Err(err).Msg("schedule session check")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		f.Run(ctx)
	}()

	consoleDone := make(chan error, 1)
	go func() {
		consoleDone <- render.NewConsole(dash, os.Stdout, log).Run(ctx, os.Stdin)
	}()

	log.Info().Msg("cryptodash is running, type help for commands")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping")
	case err := <-consoleDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("console stopped")
		}
	}

	cancel()
	<-loopDone
	log.Info().Msg("cryptodash stopped")
}

func newGateway(cfg *config.Config) gateway.Gateway {
	if cfg.Gateway.Mode == config.ModeMock {
		return gateway.NewMock()
	}
	auth := gateway.NewReqRes(cfg.Gateway.AuthBaseURL, cfg.Gateway.AuthAPIKey, cfg.Gateway.ProfileID, cfg.Gateway.Timeout, cfg.Proxy)
	auth.WatchlistURL = cfg.Gateway.WatchlistURL
	market := gateway.NewCryptoCompare(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout, cfg.Proxy)
	return gateway.NewClient(auth, market)
}
