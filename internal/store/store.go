// Package store is the single source of truth of the dashboard. State is
// replaced, never mutated, by pure reducers selected by action kind.
package store

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Action is a named state update.
type Action interface {
	Kind() string
}

// Reducer computes the next state. It must not perform I/O, read the clock
// or use randomness.
type Reducer func(s State, a Action) State

// Listener is notified after every applied dispatch. It re-reads state with
// GetState.
type Listener func()

// Observer sees every applied action, before listeners run.
type Observer func(a Action)

// Store holds the current snapshot.
//
// Dispatch is meant to be driven from one goroutine (the facade loop). A
// dispatch issued from inside a listener is applied immediately and notifies
// listeners again before the outer notification round continues.
type Store struct {
	mu        sync.RWMutex
	state     State
	reducers  map[string]Reducer
	listeners map[int]Listener
	nextID    int
	observers []Observer
	log       zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithObserver registers an observer of applied actions.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, o) }
}

// WithInitialState starts the store from st instead of InitialState().
func WithInitialState(st State) Option {
	return func(s *Store) { s.state = st }
}

// New creates a Store with the standard reducer table.
func New(log zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		state:     InitialState(),
		reducers:  Reducers(),
		listeners: make(map[int]Listener),
		log:       log.With().Str("component", "store").Logger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GetState returns the current snapshot.
func (s *Store) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies the reducer registered for a.Kind() and notifies
// listeners. Unknown kinds are logged and ignored. It reports whether the
// action was applied.
func (s *Store) Dispatch(a Action) bool {
	if a == nil {
		return false
	}
	s.mu.Lock()
	reduce, ok := s.reducers[a.Kind()]
	if !ok {
		s.mu.Unlock()
		s.log.Debug().Str("kind", a.Kind()).Msg("ignoring unknown action")
		return false
	}
	s.state = reduce(s.state, a)
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	for _, o := range s.observers {
		o(a)
	}
	for _, l := range listeners {
		l()
	}
	return true
}

// Subscribe registers l and returns its unsubscribe func.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
		})
	}
}

// snapshotListeners returns listeners in subscription order. Caller holds mu.
func (s *Store) snapshotListeners() []Listener {
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Listener, len(ids))
	for i, id := range ids {
		out[i] = s.listeners[id]
	}
	return out
}

// Replay applies actions from state st with the standard reducers and returns
// the final state. Unknown kinds are skipped.
func Replay(st State, actions []Action) State {
	reducers := Reducers()
	for _, a := range actions {
		if r, ok := reducers[a.Kind()]; ok {
			st = r(st, a)
		}
	}
	return st
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
