// Package statemachine provides a small generic Rob-Pike-style state
// function wrapper, used to layer phase-lifecycle notifications (entered,
// exited) over an entity whose actual transitions are computed elsewhere.
package statemachine

import "sync"

// PhaseEvent names a lifecycle event a PhaseFn observer can be notified of.
type PhaseEvent int

const (
	PhaseEntered PhaseEvent = iota
	PhaseExited
	PhaseTransitionRequested
)

// Observer receives phase lifecycle notifications; phaseName identifies the
// phase the event concerns.
type Observer func(phaseName string, event PhaseEvent)

// PhaseFn is a state function: given the entity and an observer, it returns
// the PhaseFn that should run on the next Dispatch.
type PhaseFn[T any] func(*T, Observer) PhaseFn[T]

// Machine drives a PhaseFn chain over a fixed entity, serializing access
// with a mutex so a Room actor's single-writer goroutine can still safely
// expose read access to other goroutines via GetCurrentPhase.
type Machine[T any] struct {
	entity  *T
	current PhaseFn[T]
	mu      sync.RWMutex
}

// New returns a Machine driving entity, starting at initial.
func New[T any](entity *T, initial PhaseFn[T]) *Machine[T] {
	return &Machine[T]{entity: entity, current: initial}
}

// Dispatch runs the current phase function once, advancing to whatever it
// returns. obs may be nil.
func (m *Machine[T]) Dispatch(obs Observer) {
	m.mu.Lock()
	fn := m.current
	m.mu.Unlock()

	if fn == nil {
		return
	}
	next := fn(m.entity, obs)

	m.mu.Lock()
	m.current = next
	m.mu.Unlock()
}

// GetCurrentPhase returns the phase function currently active.
func (m *Machine[T]) GetCurrentPhase() PhaseFn[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Force sets the active phase function directly, without running it, then
// immediately dispatches so any observer sees the resulting transition.
func (m *Machine[T]) Force(fn PhaseFn[T], obs Observer) {
	m.mu.Lock()
	m.current = fn
	m.mu.Unlock()
	m.Dispatch(obs)
}
