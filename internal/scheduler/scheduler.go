package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Ticker delivers ticks on C until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a Ticker firing every period.
type TickerFactory func(period time.Duration) Ticker

// Scheduler owns the cron runner that drives every periodic job of the
// process.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates a Scheduler. Panicking jobs are recovered and logged.
func New(log zerolog.Logger) *Scheduler {
	l := log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: l}
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cl)), cron.WithLogger(cl)),
		log:  l,
	}
}

// Start starts the cron runner.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron runner and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// Every registers fn to run on a cron spec such as "@every 30s".
func (s *Scheduler) Every(spec string, fn func()) (remove func(), err error) {
	id, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", spec, err)
	}
	return func() { s.cron.Remove(id) }, nil
}

// NewTicker registers a constant-delay entry that feeds a Ticker. Periods
// below one second are rounded up by cron. A tick is dropped when the
// previous one has not been consumed yet.
func (s *Scheduler) NewTicker(period time.Duration) Ticker {
	t := &cronTicker{c: make(chan time.Time, 1), cron: s.cron}
	t.id = s.cron.Schedule(cron.Every(period), cron.FuncJob(func() {
		select {
		case t.c <- time.Now():
		default:
		}
	}))
	return t
}

// Factory returns NewTicker as a TickerFactory.
func (s *Scheduler) Factory() TickerFactory {
	return s.NewTicker
}

type cronTicker struct {
	c    chan time.Time
	cron *cron.Cron
	id   cron.EntryID
}

func (t *cronTicker) C() <-chan time.Time { return t.c }

func (t *cronTicker) Stop() { t.cron.Remove(t.id) }

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
