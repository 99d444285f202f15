package circuitbreaker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/architeacher/resilience/pkg/logger"
)

func TestHealthChecker_CheckRecordsStatus(t *testing.T) {
	t.Parallel()

	manager := NewManager(logger.NewTestLogger(), WithClock(newFakeClock()))
	manager.GetOrCreate("db", Config{
		Enabled:          true,
		Timeout:          time.Minute,
		FailureThreshold: 1,
	})

	hc := NewHealthChecker(manager, logger.NewTestLogger(), HealthCheckConfig{})
	hc.Register("db", func(_ context.Context) error {
		return nil
	})

	hc.checkOne(context.Background(), "db")

	status := hc.Status()
	require.Contains(t, status, "db")
	require.True(t, status["db"].Healthy)
	require.Equal(t, StateClosed, status["db"].State)
	require.NoError(t, status["db"].LastError)
	require.False(t, status["db"].LastChecked.IsZero())
}

func TestHealthChecker_FailingDependencyTripsBreaker(t *testing.T) {
	t.Parallel()

	manager := NewManager(logger.NewTestLogger(), WithClock(newFakeClock()))
	manager.GetOrCreate("db", Config{
		Enabled:          true,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	})

	hc := NewHealthChecker(manager, logger.NewTestLogger(), HealthCheckConfig{})
	hc.Register("db", func(_ context.Context) error {
		return errors.New("connection refused")
	})

	hc.checkOne(context.Background(), "db")

	status := hc.Status()["db"]
	require.False(t, status.Healthy)
	require.Error(t, status.LastError)
	require.Equal(t, StateClosed, status.State)

	// The second failing probe trips the breaker.
	hc.checkOne(context.Background(), "db")

	status = hc.Status()["db"]
	require.False(t, status.Healthy)
	require.Equal(t, StateOpen, status.State)

	// With the circuit open the probe is rejected before reaching the
	// dependency; the rejection itself is recorded as unhealthy.
	hc.checkOne(context.Background(), "db")

	status = hc.Status()["db"]
	require.False(t, status.Healthy)
	require.ErrorIs(t, status.LastError, ErrCircuitOpen)
}

func TestHealthChecker_UnregisteredBreaker(t *testing.T) {
	t.Parallel()

	manager := NewManager(logger.NewTestLogger())

	hc := NewHealthChecker(manager, logger.NewTestLogger(), HealthCheckConfig{})
	hc.Register("ghost", func(_ context.Context) error {
		return nil
	})

	// No circuit breaker is registered under this name, so nothing is
	// recorded.
	hc.checkOne(context.Background(), "ghost")

	require.Empty(t, hc.Status())
}

func TestHealthChecker_UnknownCheckIsIgnored(t *testing.T) {
	t.Parallel()

	manager := NewManager(logger.NewTestLogger())

	hc := NewHealthChecker(manager, logger.NewTestLogger(), HealthCheckConfig{})

	hc.checkOne(context.Background(), "never-registered")

	require.Empty(t, hc.Status())
}

func TestHealthChecker_SchedulesImmediateCheckOnOpen(t *testing.T) {
	t.Parallel()

	manager := NewManager(logger.NewTestLogger())
	hc := NewHealthChecker(manager, logger.NewTestLogger(), HealthCheckConfig{})

	hc.OnStateChange("db", StateClosed, StateOpen)
	hc.OnStateChange("db", StateOpen, StateHalfOpen)
	hc.OnStateChange("db", StateHalfOpen, StateClosed)

	// Only the transition into open schedules a probe.
	select {
	case name := <-hc.immediateCheck:
		require.Equal(t, "db", name)
	default:
		t.Fatal("expected an immediate check to be scheduled")
	}

	select {
	case name := <-hc.immediateCheck:
		t.Fatalf("unexpected extra check scheduled: %s", name)
	default:
	}
}

func TestHealthChecker_StartStop(t *testing.T) {
	t.Parallel()

	manager := NewManager(logger.NewTestLogger(), WithClock(newFakeClock()))
	manager.GetOrCreate("db", Config{
		Enabled:          true,
		Timeout:          time.Minute,
		FailureThreshold: 5,
	})

	var calls atomic.Int32

	hc := NewHealthChecker(manager, logger.NewTestLogger(), HealthCheckConfig{
		Interval: 10 * time.Millisecond,
		Timeout:  time.Second,
	})
	hc.Register("db", func(_ context.Context) error {
		calls.Add(1)

		return nil
	})

	ctx := context.Background()

	hc.Start(ctx)
	hc.Start(ctx) // second start is a no-op

	require.Eventually(t, func() bool {
		return calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	hc.Stop()

	// The loop has exited, so no further probes happen.
	settled := calls.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, settled, calls.Load())

	hc.Stop() // second stop is a no-op

	require.True(t, hc.Status()["db"].Healthy)
}

func TestHealthChecker_ImmediateRecheckWhenBreakerOpens(t *testing.T) {
	t.Parallel()

	manager := NewManager(logger.NewTestLogger(), WithClock(newFakeClock()))
	manager.GetOrCreate("db", Config{
		Enabled:          true,
		Timeout:          time.Minute,
		FailureThreshold: 1,
	})

	hc := NewHealthChecker(manager, logger.NewTestLogger(), HealthCheckConfig{
		Interval: time.Hour,
		Timeout:  time.Second,
	})
	hc.Register("db", func(_ context.Context) error {
		return nil
	})

	hc.Start(context.Background())
	defer hc.Stop()

	// The initial sweep sees a healthy dependency.
	require.Eventually(t, func() bool {
		return hc.Status()["db"].Healthy
	}, time.Second, 5*time.Millisecond)

	// Regular traffic trips the breaker; the checker re-probes right away
	// instead of waiting out the hour-long sweep interval.
	_, err := manager.Execute(context.Background(), "db", func(_ context.Context) (any, error) {
		return nil, errors.New("connection refused")
	})
	require.Error(t, err)

	require.Eventually(t, func() bool {
		status := hc.Status()["db"]

		return !status.Healthy && status.State == StateOpen
	}, time.Second, 5*time.Millisecond)
}
