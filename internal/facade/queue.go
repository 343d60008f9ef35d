package facade

import "sync"

// callQueue is an unbounded FIFO of funcs for the main loop.
type callQueue struct {
	mu    sync.Mutex
	fns   []func()
	ready chan struct{}
}

func newCallQueue() *callQueue {
	return &callQueue{ready: make(chan struct{}, 1)}
}

func (q *callQueue) push(fn func()) {
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *callQueue) drain() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.fns
	q.fns = nil
	return out
}
