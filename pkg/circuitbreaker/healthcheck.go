package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/architeacher/resilience/pkg/logger"
)

const (
	defaultHealthCheckInterval = 30 * time.Second
	defaultHealthCheckTimeout  = 5 * time.Second

	immediateCheckBuffer = 16
)

type (
	// CheckFunc probes a dependency and returns nil when it is reachable.
	CheckFunc func(ctx context.Context) error

	HealthCheckConfig struct {
		Interval time.Duration
		Timeout  time.Duration
	}

	// DependencyStatus is the outcome of the most recent probe of a
	// dependency, together with its circuit breaker state at that moment.
	DependencyStatus struct {
		State       State
		Healthy     bool
		LastChecked time.Time
		LastError   error
	}

	// HealthChecker periodically probes registered dependencies through
	// their circuit breakers, so probe outcomes feed the same counts as
	// regular traffic. A breaker entering open triggers an immediate
	// re-probe of that dependency ahead of the next sweep.
	HealthChecker struct {
		manager *Manager
		log     logger.Logger
		config  HealthCheckConfig

		mu      sync.RWMutex
		checks  map[string]CheckFunc
		status  map[string]DependencyStatus
		running bool
		stop    chan struct{}
		done    chan struct{}

		immediateCheck chan string
	}
)

func (c HealthCheckConfig) withDefaults() HealthCheckConfig {
	if c.Interval <= 0 {
		c.Interval = defaultHealthCheckInterval
	}

	if c.Timeout <= 0 {
		c.Timeout = defaultHealthCheckTimeout
	}

	return c
}

// NewHealthChecker creates a health checker probing dependencies through
// the manager's circuit breakers. It subscribes itself to the manager to
// learn about breakers entering open.
func NewHealthChecker(manager *Manager, log logger.Logger, config HealthCheckConfig) *HealthChecker {
	hc := &HealthChecker{
		manager:        manager,
		log:            log,
		config:         config.withDefaults(),
		checks:         make(map[string]CheckFunc),
		status:         make(map[string]DependencyStatus),
		immediateCheck: make(chan string, immediateCheckBuffer),
	}

	manager.Subscribe(hc)

	return hc
}

// Register adds a probe for the named dependency. The name must match the
// name the dependency's circuit breaker is registered under.
func (hc *HealthChecker) Register(name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.checks[name] = check
}

// Start launches the probe loop. It runs an initial sweep immediately and
// then probes every configured interval until Stop is called or the context
// is canceled. Calling Start on a running checker is a no-op.
func (hc *HealthChecker) Start(ctx context.Context) {
	hc.mu.Lock()

	if hc.running {
		hc.mu.Unlock()

		return
	}

	hc.running = true
	hc.stop = make(chan struct{})
	hc.done = make(chan struct{})
	stop, done := hc.stop, hc.done

	hc.mu.Unlock()

	go hc.run(ctx, stop, done)
}

// Stop terminates the probe loop and waits for it to exit.
func (hc *HealthChecker) Stop() {
	hc.mu.Lock()

	if !hc.running {
		hc.mu.Unlock()

		return
	}

	hc.running = false
	stop, done := hc.stop, hc.done

	hc.mu.Unlock()

	close(stop)
	<-done
}

// OnStateChange schedules an immediate probe when a circuit breaker opens.
// The probe is dropped if the schedule buffer is full; the periodic sweep
// covers it then.
func (hc *HealthChecker) OnStateChange(name string, _, to State) {
	if to != StateOpen {
		return
	}

	select {
	case hc.immediateCheck <- name:
	default:
	}
}

// Status returns a snapshot of the most recent probe outcomes by
// dependency name.
func (hc *HealthChecker) Status() map[string]DependencyStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	status := make(map[string]DependencyStatus, len(hc.status))
	for name, s := range hc.status {
		status[name] = s
	}

	return status
}

func (hc *HealthChecker) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(hc.config.Interval)
	defer ticker.Stop()

	hc.checkAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			hc.checkAll(ctx)
		case name := <-hc.immediateCheck:
			hc.checkOne(ctx, name)
		}
	}
}

func (hc *HealthChecker) checkAll(ctx context.Context) {
	hc.mu.RLock()
	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	hc.mu.RUnlock()

	for _, name := range names {
		hc.checkOne(ctx, name)
	}
}

func (hc *HealthChecker) checkOne(ctx context.Context, name string) {
	hc.mu.RLock()
	check, ok := hc.checks[name]
	hc.mu.RUnlock()

	if !ok {
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, hc.config.Timeout)
	defer cancel()

	_, err := hc.manager.Execute(checkCtx, name, func(ctx context.Context) (any, error) {
		return nil, check(ctx)
	})

	switch {
	case errors.Is(err, ErrBreakerNotFound):
		hc.log.Warn().
			Str("circuit_breaker", name).
			Msg("health check for unregistered circuit breaker")

		return
	case errors.Is(err, ErrTooManyRequests):
		return
	}

	hc.record(name, err)
}

// record stores the probe outcome. An ErrCircuitOpen rejection is recorded
// as unhealthy: the open circuit attests the dependency was failing.
func (hc *HealthChecker) record(name string, err error) {
	state, stateErr := hc.manager.State(name)
	if stateErr != nil {
		return
	}

	hc.mu.Lock()
	hc.status[name] = DependencyStatus{
		State:       state,
		Healthy:     err == nil,
		LastChecked: time.Now(),
		LastError:   err,
	}
	hc.mu.Unlock()

	if err != nil {
		hc.log.Warn().
			Str("circuit_breaker", name).
			Err(err).
			Msg("health check failed")
	}
}
