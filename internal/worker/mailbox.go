package worker

import (
	"sync"

	"cryptodash/internal/message"
)

// mailbox is an unbounded FIFO queue. Post never blocks the sender.
type mailbox struct {
	mu     sync.Mutex
	items  []message.Envelope
	ready  chan struct{}
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{ready: make(chan struct{}, 1)}
}

// Post enqueues env. It reports false once the mailbox is closed.
func (m *mailbox) Post(env message.Envelope) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, env)
	m.mu.Unlock()
	select {
	case m.ready <- struct{}{}:
	default:
	}
	return true
}

// Ready fires when at least one envelope may be waiting.
func (m *mailbox) Ready() <-chan struct{} { return m.ready }

// Drain returns every queued envelope in arrival order.
func (m *mailbox) Drain() []message.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.items
	m.items = nil
	return out
}

func (m *mailbox) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.items = nil
}
