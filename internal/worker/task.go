// Package worker implements the background tasks of the dashboard. Each task
// owns its state, receives commands through a non-blocking mailbox and emits
// results on its own channel; nothing is shared with the caller except the
// encoded envelopes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"cryptodash/internal/gateway"
	"cryptodash/internal/message"
	"cryptodash/internal/model"
)

// Task names.
const (
	NameBoot       = "boot"
	NamePoll       = "poll"
	NameSearch     = "search"
	NameHistorical = "historical"
	NameAnalysis   = "analysis"
)

// State is the coarse lifecycle of a task.
type State int32

const (
	Idle State = iota
	Running
	Polling
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Polling:
		return "polling"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Task is a background unit of work.
type Task interface {
	Name() string
	// Post delivers a command without blocking.
	Post(cmd message.Envelope)
	// Results carries every result and ERROR envelope in emission order.
	Results() <-chan message.Envelope
	// Run processes commands until ctx is done.
	Run(ctx context.Context)
	State() State
}

const resultBuffer = 64

// base carries the plumbing shared by every task.
type base struct {
	name  string
	inbox *mailbox
	out   chan message.Envelope
	state atomic.Int32
	log   zerolog.Logger
}

func newBase(name string, log zerolog.Logger) base {
	return base{
		name:  name,
		inbox: newMailbox(),
		out:   make(chan message.Envelope, resultBuffer),
		log:   log.With().Str("task", name).Logger(),
	}
}

func (b *base) Name() string                     { return b.name }
func (b *base) Results() <-chan message.Envelope { return b.out }
func (b *base) State() State                     { return State(b.state.Load()) }
func (b *base) setState(s State)                 { b.state.Store(int32(s)) }

func (b *base) Post(cmd message.Envelope) {
	if !b.inbox.Post(cmd) {
		b.log.Warn().Str("kind", string(cmd.Kind)).Msg("command posted to stopped task")
	}
}

// emit sends a result unless ctx is done first.
func (b *base) emit(ctx context.Context, env message.Envelope) {
	select {
	case b.out <- env:
	case <-ctx.Done():
	}
}

func (b *base) stop() {
	b.inbox.close()
	b.setState(Stopped)
	b.log.Debug().Msg("task stopped")
}

// handler computes the result of one command. ok is false when the command
// produces no result.
type handler func(ctx context.Context, cmd message.Envelope) (result message.Envelope, ok bool, err error)

// oneShot runs a handler for each command, one at a time, in arrival order.
type oneShot struct {
	base
	handle handler
}

func (t *oneShot) Run(ctx context.Context) {
	defer t.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.inbox.Ready():
			for _, cmd := range t.inbox.Drain() {
				if ctx.Err() != nil {
					return
				}
				t.process(ctx, cmd)
			}
		}
	}
}

func (t *oneShot) process(ctx context.Context, cmd message.Envelope) {
	t.setState(Running)
	defer t.setState(Idle)

	result, ok, err := t.safeHandle(ctx, cmd)
	switch {
	case err != nil:
		t.log.Warn().Err(err).Str("kind", string(cmd.Kind)).Msg("command failed")
		t.emit(ctx, errorResult(err))
	case ok:
		t.emit(ctx, result)
	}
}

func (t *oneShot) safeHandle(ctx context.Context, cmd message.Envelope) (result message.Envelope, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s task panicked: %v", t.name, r)
		}
	}()
	return t.handle(ctx, cmd)
}

// errUnsupported is returned for commands a task does not understand.
func errUnsupported(task string, kind message.Kind) error {
	return &model.ValidationError{Field: "command", Reason: fmt.Sprintf("%s task does not handle %s", task, kind)}
}

// errorResult wraps err in an ERROR envelope carrying a ready-made
// notification.
func errorResult(err error) message.Envelope {
	return message.Must(message.Error, model.NewNotification(model.SeverityError, describe(err)))
}

func describe(err error) string {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return gateway.UserMessage(err)
}
