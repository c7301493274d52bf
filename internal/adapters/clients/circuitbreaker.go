package clients

import (
	"sync"
	"time"
)

// State is the circuit breaker's position.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen rejects requests until the cool-down has passed.
	StateOpen

	// StateHalfOpen lets a limited number of probes through.
	StateHalfOpen
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int

	// Timeout is the cool-down spent open before probing.
	Timeout time.Duration

	// HalfOpenLimit is both the number of concurrent probes and the number
	// of consecutive probe successes needed to close again.
	HalfOpenLimit int
}

// Snapshot is a point-in-time view of the breaker.
type Snapshot struct {
	State               State
	ConsecutiveFailures int
	OpenedAt            time.Time
}

// CircuitBreaker stops calling an upstream that keeps failing.
//
//	Closed   -> Open      after MaxFailures consecutive failures
//	Open     -> HalfOpen  once Timeout has elapsed since the last failure
//	HalfOpen -> Closed    after HalfOpenLimit consecutive successes
//	HalfOpen -> Open      on any failure
type CircuitBreaker struct {
	mu        sync.Mutex
	cfg       CircuitBreakerConfig
	state     State
	failures  int
	successes int
	probes    int
	lastFail  time.Time
	openedAt  time.Time
	listeners []func(from, to State)
	now       func() time.Time
}

// NewCircuitBreaker creates a closed breaker. Non-positive limits fall back to 1.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}

	if cfg.HalfOpenLimit < 1 {
		cfg.HalfOpenLimit = 1
	}

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn for every transition. Listeners run after the
// breaker's lock is released.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.listeners = append(cb.listeners, fn)
}

// Allow reports whether a request may proceed. Every allowed request must be
// followed by RecordSuccess or RecordFailure.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()

	var (
		allowed bool
		notify  func()
	)

	switch cb.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if cb.now().Sub(cb.lastFail) >= cb.cfg.Timeout {
			notify = cb.moveTo(StateHalfOpen)
			cb.probes = 1
			allowed = true
		}
	case StateHalfOpen:
		if cb.probes < cb.cfg.HalfOpenLimit {
			cb.probes++
			allowed = true
		}
	}

	cb.mu.Unlock()

	if notify != nil {
		notify()
	}

	return allowed
}

// RecordSuccess reports a successful request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()

	var notify func()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probes--
		cb.successes++

		if cb.successes >= cb.cfg.HalfOpenLimit {
			notify = cb.moveTo(StateClosed)
		}
	}

	cb.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// RecordFailure reports a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	var notify func()

	cb.lastFail = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			notify = cb.moveTo(StateOpen)
		}
	case StateHalfOpen:
		cb.probes--
		notify = cb.moveTo(StateOpen)
	}

	cb.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// Snapshot returns the current state with its counters.
func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Snapshot{State: cb.state, ConsecutiveFailures: cb.failures, OpenedAt: cb.openedAt}
}

// moveTo must be called with mu held. It returns the listener fan-out to run
// after unlocking, or nil when the state did not change.
func (cb *CircuitBreaker) moveTo(next State) func() {
	if cb.state == next {
		return nil
	}

	prev := cb.state
	cb.state = next
	cb.failures = 0
	cb.successes = 0

	if next == StateOpen {
		cb.openedAt = cb.now()
	}

	listeners := make([]func(from, to State), len(cb.listeners))
	copy(listeners, cb.listeners)

	return func() {
		for _, fn := range listeners {
			fn(prev, next)
		}
	}
}
