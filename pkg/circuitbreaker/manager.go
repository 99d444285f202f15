package circuitbreaker

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/architeacher/resilience/pkg/logger"
)

// Manager owns a named circuit breaker per dependency. Callers address
// breakers by name and never share one breaker across unrelated
// dependencies. Every managed breaker logs its transitions and fans them
// out to observers subscribed on the manager.
type Manager struct {
	log         logger.Logger
	logObserver *LoggingObserver
	clock       Clock

	mu        sync.RWMutex
	breakers  map[string]*CircuitBreaker[any]
	observers []StateChangeObserver
}

type ManagerOption func(*Manager)

// WithClock overrides the time source of breakers the manager creates.
func WithClock(clock Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

func NewManager(log logger.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		log:         log,
		logObserver: NewLoggingObserver(log),
		clock:       systemClock{},
		breakers:    make(map[string]*CircuitBreaker[any]),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// GetOrCreate returns the circuit breaker registered under name, creating
// it from cfg on first use. A disabled config registers a nil breaker,
// which executes operations directly. The config's Name is overridden by
// the registration name.
func (m *Manager) GetOrCreate(name string, cfg Config) *CircuitBreaker[any] {
	m.mu.RLock()
	breaker, ok := m.breakers[name]
	m.mu.RUnlock()

	if ok {
		return breaker
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if breaker, ok := m.breakers[name]; ok {
		return breaker
	}

	cfg.Name = name

	if cfg.Enabled {
		settings := cfg.Settings()
		settings.Clock = m.clock

		breaker = NewWithSettings[any](settings)
		breaker.Subscribe(ObserverFunc(m.fanOut))
	}

	m.breakers[name] = breaker

	m.log.Debug().
		Str("circuit_breaker", name).
		Bool("enabled", cfg.Enabled).
		Msg("circuit breaker created")

	return breaker
}

// Get returns the circuit breaker registered under name. The second result
// reports whether the name is registered; a registered breaker may still be
// nil when its config disabled it.
func (m *Manager) Get(name string) (*CircuitBreaker[any], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	breaker, ok := m.breakers[name]

	return breaker, ok
}

// Execute runs the operation through the named circuit breaker.
// Returns ErrBreakerNotFound if no breaker is registered under name.
func (m *Manager) Execute(ctx context.Context, name string, op func(ctx context.Context) (any, error)) (any, error) {
	breaker, ok := m.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBreakerNotFound, name)
	}

	return breaker.Execute(func() (any, error) {
		return op(ctx)
	})
}

// State reports the current state of the named circuit breaker.
func (m *Manager) State(name string) (State, error) {
	breaker, ok := m.Get(name)
	if !ok {
		return StateClosed, fmt.Errorf("%w: %s", ErrBreakerNotFound, name)
	}

	return breaker.State(), nil
}

// Counts reports the current counts of the named circuit breaker.
func (m *Manager) Counts(name string) (Counts, error) {
	breaker, ok := m.Get(name)
	if !ok {
		return Counts{}, fmt.Errorf("%w: %s", ErrBreakerNotFound, name)
	}

	return breaker.Counts(), nil
}

// IsHealthy reports whether the named dependency is usable, meaning its
// breaker is not open. Unknown names are reported healthy.
func (m *Manager) IsHealthy(name string) bool {
	state, err := m.State(name)
	if err != nil {
		return true
	}

	return state != StateOpen
}

// Names returns the registered circuit breaker names in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.breakers))
	for name := range m.breakers {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Reset forces the named circuit breaker back to closed.
func (m *Manager) Reset(name string) error {
	breaker, ok := m.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBreakerNotFound, name)
	}

	breaker.Reset()

	return nil
}

// ResetAll forces every managed circuit breaker back to closed.
func (m *Manager) ResetAll() {
	m.mu.RLock()
	breakers := make([]*CircuitBreaker[any], 0, len(m.breakers))
	for _, breaker := range m.breakers {
		breakers = append(breakers, breaker)
	}
	m.mu.RUnlock()

	for _, breaker := range breakers {
		breaker.Reset()
	}
}

// Subscribe attaches an observer to transitions of all managed breakers,
// including ones created later. Unlike observers subscribed on a single
// breaker, manager observers are notified asynchronously and a panicking
// observer is recovered and logged rather than propagated.
func (m *Manager) Subscribe(observer StateChangeObserver) {
	if observer == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.observers = append(m.observers, observer)
}

func (m *Manager) fanOut(name string, from, to State) {
	m.logObserver.OnStateChange(name, from, to)

	m.mu.RLock()
	observers := make([]StateChangeObserver, len(m.observers))
	copy(observers, m.observers)
	m.mu.RUnlock()

	for _, observer := range observers {
		go func(observer StateChangeObserver) {
			defer func() {
				if r := recover(); r != nil {
					m.log.Error().
						Str("circuit_breaker", name).
						Interface("panic", r).
						Msg("state change observer panicked")
				}
			}()

			observer.OnStateChange(name, from, to)
		}(observer)
	}
}
