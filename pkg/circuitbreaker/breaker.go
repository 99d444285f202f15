package circuitbreaker

import (
	"sync"
	"time"
)

// CircuitBreaker guards calls to a single unreliable dependency with a
// three-state machine: closed (requests flow, outcomes are counted), open
// (requests are rejected until Timeout elapses) and half-open (a limited
// number of probe requests test whether the dependency recovered).
//
// It uses generics to provide type-safe execution without interface boxing.
// All methods are safe for concurrent use; the internal mutex is never held
// while the wrapped operation runs. Time-based transitions are evaluated
// lazily on the calls that observe them, so a breaker owns no goroutines.
//
// Every transition starts a new generation and clears the counts. An
// operation records its outcome only into the generation it started in;
// outcomes from stale generations are discarded.
type CircuitBreaker[T any] struct {
	name             string
	maxRequests      uint32
	interval         time.Duration
	timeout          time.Duration
	successThreshold uint32
	readyToTrip      ReadyToTripFunc
	isSuccessful     IsSuccessfulFunc
	clock            Clock

	mu         sync.Mutex
	state      State
	generation uint64
	counts     Counts
	expiry     time.Time
	observers  []StateChangeObserver
	pending    []stateChange
}

// New creates a circuit breaker from a Config.
// Returns nil if the circuit breaker is disabled in the configuration;
// a nil circuit breaker executes operations directly.
func New[T any](cfg Config) *CircuitBreaker[T] {
	if !cfg.Enabled {
		return nil
	}

	return NewWithSettings[T](cfg.Settings())
}

// NewWithSettings creates a circuit breaker with full control over its
// behavior. Zero-valued fields fall back to defaults, so
// NewWithSettings[T](Settings{}) yields a breaker that trips after five
// consecutive failures and stays open for a minute before probing.
func NewWithSettings[T any](settings Settings) *CircuitBreaker[T] {
	settings = settings.withDefaults()

	cb := &CircuitBreaker[T]{
		name:             settings.Name,
		maxRequests:      settings.MaxRequests,
		interval:         settings.Interval,
		timeout:          settings.Timeout,
		successThreshold: settings.SuccessThreshold,
		readyToTrip:      settings.ReadyToTrip,
		isSuccessful:     settings.IsSuccessful,
		clock:            settings.Clock,
	}

	if settings.OnStateChange != nil {
		cb.observers = append(cb.observers, ObserverFunc(settings.OnStateChange))
	}

	cb.toNewGeneration(cb.clock.Now())

	return cb
}

// Execute runs the given operation if the circuit breaker admits it.
// It returns the operation's own result and error on completion,
// ErrCircuitOpen while the circuit is open, and ErrTooManyRequests when the
// half-open probe budget is exhausted. Rejected calls never reach the
// operation and are not counted.
// If the circuit breaker is nil, the operation is executed directly.
// A panic inside the operation is recorded as a failure and re-panicked.
func (cb *CircuitBreaker[T]) Execute(op func() (T, error)) (T, error) {
	if cb == nil {
		return op()
	}

	generation, err := cb.beforeRequest()
	if err != nil {
		var zero T

		return zero, err
	}

	defer func() {
		if r := recover(); r != nil {
			cb.afterRequest(generation, false)
			panic(r)
		}
	}()

	result, err := op()
	cb.afterRequest(generation, cb.isSuccessful(err))

	return result, err
}

// Allow admits or rejects a call without wrapping it in a closure, for
// callers that cannot express their work as a single function. On admission
// it returns a done callback that must be invoked exactly once with the
// outcome; the outcome is discarded if the breaker changed generation in
// the meantime. On rejection, done is nil and err is ErrCircuitOpen or
// ErrTooManyRequests.
// If the circuit breaker is nil, the call is admitted and done is a no-op.
func (cb *CircuitBreaker[T]) Allow() (done func(success bool), err error) {
	if cb == nil {
		return func(bool) {}, nil
	}

	generation, err := cb.beforeRequest()
	if err != nil {
		return nil, err
	}

	return func(success bool) {
		cb.afterRequest(generation, success)
	}, nil
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker[T]) Name() string {
	if cb == nil {
		return ""
	}

	return cb.name
}

// State returns the current state, applying any due time-based transition
// first. A nil circuit breaker reports StateClosed.
func (cb *CircuitBreaker[T]) State() State {
	if cb == nil {
		return StateClosed
	}

	cb.mu.Lock()
	state, _ := cb.currentState(cb.clock.Now())
	changes, observers := cb.drain()
	cb.mu.Unlock()

	cb.notify(changes, observers)

	return state
}

// Counts returns a snapshot of the current generation's statistics.
func (cb *CircuitBreaker[T]) Counts() Counts {
	if cb == nil {
		return Counts{}
	}

	cb.mu.Lock()
	cb.currentState(cb.clock.Now())
	counts := cb.counts
	changes, observers := cb.drain()
	cb.mu.Unlock()

	cb.notify(changes, observers)

	return counts
}

// Reset forces the circuit breaker back to closed with fresh counts,
// regardless of its current state. Observers see the transition like any
// other.
func (cb *CircuitBreaker[T]) Reset() {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	now := cb.clock.Now()

	if cb.state == StateClosed {
		cb.toNewGeneration(now)
	} else {
		cb.setState(StateClosed, now)
	}

	changes, observers := cb.drain()
	cb.mu.Unlock()

	cb.notify(changes, observers)
}

// Subscribe attaches an observer that receives every subsequent state
// transition. Observers run synchronously outside the critical section, in
// subscription order, and must not block materially.
func (cb *CircuitBreaker[T]) Subscribe(observer StateChangeObserver) {
	if cb == nil || observer == nil {
		return
	}

	cb.mu.Lock()
	observers := make([]StateChangeObserver, 0, len(cb.observers)+1)
	observers = append(observers, cb.observers...)
	observers = append(observers, observer)
	cb.observers = observers
	cb.mu.Unlock()
}

func (cb *CircuitBreaker[T]) beforeRequest() (uint64, error) {
	cb.mu.Lock()

	now := cb.clock.Now()
	state, generation := cb.currentState(now)

	var err error

	switch {
	case state == StateOpen:
		err = ErrCircuitOpen
	case state == StateHalfOpen && cb.counts.Requests >= cb.maxRequests:
		err = ErrTooManyRequests
	default:
		cb.counts.onRequest()
	}

	changes, observers := cb.drain()
	cb.mu.Unlock()

	cb.notify(changes, observers)

	return generation, err
}

func (cb *CircuitBreaker[T]) afterRequest(before uint64, success bool) {
	cb.mu.Lock()

	now := cb.clock.Now()
	state, generation := cb.currentState(now)

	if generation == before {
		if success {
			cb.onSuccess(state, now)
		} else {
			cb.onFailure(state, now)
		}
	}

	changes, observers := cb.drain()
	cb.mu.Unlock()

	cb.notify(changes, observers)
}

func (cb *CircuitBreaker[T]) onSuccess(state State, now time.Time) {
	switch state {
	case StateClosed:
		cb.counts.onSuccess()
	case StateHalfOpen:
		cb.counts.onSuccess()

		if cb.counts.ConsecutiveSuccesses >= cb.successThreshold {
			cb.setState(StateClosed, now)
		}
	}
}

func (cb *CircuitBreaker[T]) onFailure(state State, now time.Time) {
	switch state {
	case StateClosed:
		cb.counts.onFailure()

		if cb.readyToTrip(cb.counts) {
			cb.setState(StateOpen, now)
		}
	case StateHalfOpen:
		cb.setState(StateOpen, now)
	}
}

// currentState applies any due time-based transition and reports the state
// and generation that admission or outcome recording should use.
// The caller must hold cb.mu.
func (cb *CircuitBreaker[T]) currentState(now time.Time) (State, uint64) {
	switch cb.state {
	case StateClosed:
		if !cb.expiry.IsZero() && cb.expiry.Before(now) {
			cb.toNewGeneration(now)
		}
	case StateOpen:
		if cb.expiry.Before(now) {
			cb.setState(StateHalfOpen, now)
		}
	}

	return cb.state, cb.generation
}

func (cb *CircuitBreaker[T]) setState(state State, now time.Time) {
	if cb.state == state {
		return
	}

	from := cb.state
	cb.state = state

	cb.toNewGeneration(now)

	cb.pending = append(cb.pending, stateChange{from: from, to: state})
}

// toNewGeneration starts a fresh generation: counts are cleared and the
// expiry for the next time-based transition is armed.
func (cb *CircuitBreaker[T]) toNewGeneration(now time.Time) {
	cb.generation++
	cb.counts.clear()

	switch cb.state {
	case StateClosed:
		if cb.interval <= 0 {
			cb.expiry = time.Time{}
		} else {
			cb.expiry = now.Add(cb.interval)
		}
	case StateOpen:
		cb.expiry = now.Add(cb.timeout)
	default:
		cb.expiry = time.Time{}
	}
}

// drain hands the transitions recorded in this critical section to the
// caller together with the observer list that should see them.
// The caller must hold cb.mu and deliver after releasing it.
func (cb *CircuitBreaker[T]) drain() ([]stateChange, []StateChangeObserver) {
	if len(cb.pending) == 0 {
		return nil, nil
	}

	changes := cb.pending
	cb.pending = nil

	return changes, cb.observers
}

func (cb *CircuitBreaker[T]) notify(changes []stateChange, observers []StateChangeObserver) {
	for _, change := range changes {
		for _, observer := range observers {
			observer.OnStateChange(cb.name, change.from, change.to)
		}
	}
}
