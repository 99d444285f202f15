package circuitbreaker

import "errors"

// Sentinel errors returned by circuit breakers.
var (
	// ErrCircuitOpen indicates the circuit breaker is in open state,
	// rejecting all requests to allow the downstream service to recover.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrTooManyRequests indicates the circuit breaker is in half-open state
	// and the maximum number of probe requests has been reached.
	ErrTooManyRequests = errors.New("too many requests in half-open state")

	// ErrBreakerNotFound indicates a manager operation referenced a name
	// with no registered circuit breaker.
	ErrBreakerNotFound = errors.New("circuit breaker not found")
)

// IsRejection reports whether err was synthesized by a circuit breaker
// rather than returned by the wrapped operation, so callers can tell
// "the dependency failed" apart from "the breaker refused the call".
func IsRejection(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests)
}
