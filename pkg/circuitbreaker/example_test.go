package circuitbreaker_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/architeacher/resilience/pkg/circuitbreaker"
	"github.com/architeacher/resilience/pkg/logger"
)

// ExampleCircuitBreaker_Execute demonstrates running an operation through a
// circuit breaker with default settings.
func ExampleCircuitBreaker_Execute() {
	cb := circuitbreaker.NewWithSettings[string](circuitbreaker.Settings{
		Name: "user-service",
	})

	user, err := cb.Execute(func() (string, error) {
		return "john_doe", nil
	})

	fmt.Println("User:", user)
	fmt.Println("Error:", err)
	fmt.Println("State:", cb.State())

	// Output:
	// User: john_doe
	// Error: <nil>
	// State: closed
}

// ExampleCircuitBreaker_Execute_open demonstrates rejection once the circuit
// breaker has tripped.
func ExampleCircuitBreaker_Execute_open() {
	cb := circuitbreaker.NewWithSettings[string](circuitbreaker.Settings{
		Name: "api",
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	})

	attempts := 0
	for range 5 {
		_, err := cb.Execute(func() (string, error) {
			attempts++
			return "", errors.New("service unavailable")
		})
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			fmt.Println("Circuit is open, skipping call")
		}
	}

	fmt.Println("Attempts:", attempts)
	fmt.Println("State:", cb.State())

	// Output:
	// Circuit is open, skipping call
	// Circuit is open, skipping call
	// Circuit is open, skipping call
	// Attempts: 2
	// State: open
}

// ExampleNewWithSettings demonstrates the state change hook.
func ExampleNewWithSettings() {
	cb := circuitbreaker.NewWithSettings[int](circuitbreaker.Settings{
		Name: "payment-service",
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			fmt.Printf("Circuit %s: %s -> %s\n", name, from, to)
		},
	})

	_, _ = cb.Execute(func() (int, error) {
		return 0, errors.New("fail")
	})

	// Output:
	// Circuit payment-service: closed -> open
}

// ExampleCircuitBreaker_Reset demonstrates manually resetting a circuit
// breaker.
func ExampleCircuitBreaker_Reset() {
	cb := circuitbreaker.NewWithSettings[string](circuitbreaker.Settings{
		Name: "service",
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	})

	_, _ = cb.Execute(func() (string, error) {
		return "", errors.New("fail")
	})

	fmt.Println("Before reset:", cb.State())

	cb.Reset()

	fmt.Println("After reset:", cb.State())

	// Output:
	// Before reset: open
	// After reset: closed
}

// ExampleIsRejection demonstrates graceful degradation when the circuit
// breaker rejects a call.
func ExampleIsRejection() {
	cb := circuitbreaker.NewWithSettings[string](circuitbreaker.Settings{
		Name: "user-service",
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	})

	getUser := func() (string, error) {
		user, err := cb.Execute(func() (string, error) {
			return "", errors.New("service unavailable")
		})
		if circuitbreaker.IsRejection(err) {
			return "guest", nil
		}

		return user, err
	}

	_, err := getUser()
	fallback, _ := getUser()

	fmt.Println("First call failed:", err != nil)
	fmt.Println("Second call user:", fallback)

	// Output:
	// First call failed: true
	// Second call user: guest
}

// ExampleManager demonstrates addressing per-dependency circuit breakers by
// name.
func ExampleManager() {
	manager := circuitbreaker.NewManager(logger.NewTestLogger())

	manager.GetOrCreate("payments", circuitbreaker.Config{
		Enabled:          true,
		Timeout:          time.Minute,
		FailureThreshold: 1,
	})

	_, err := manager.Execute(context.Background(), "payments", func(_ context.Context) (any, error) {
		return nil, errors.New("gateway timeout")
	})
	fmt.Println("First error is rejection:", circuitbreaker.IsRejection(err))

	_, err = manager.Execute(context.Background(), "payments", func(_ context.Context) (any, error) {
		return "ok", nil
	})
	fmt.Println("Second error is rejection:", circuitbreaker.IsRejection(err))

	state, _ := manager.State("payments")
	fmt.Println("State:", state)

	// Output:
	// First error is rejection: false
	// Second error is rejection: true
	// State: open
}

// ExampleState_String demonstrates state string representation.
func ExampleState_String() {
	fmt.Println(circuitbreaker.StateClosed)
	fmt.Println(circuitbreaker.StateOpen)
	fmt.Println(circuitbreaker.StateHalfOpen)

	// Output:
	// closed
	// open
	// half-open
}
