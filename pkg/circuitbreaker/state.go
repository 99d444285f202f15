package circuitbreaker

// State represents the operational state of a circuit breaker.
type State int

// A circuit breaker is in exactly one of these states at any instant.
const (
	// StateClosed lets requests through while tracking their outcomes.
	StateClosed State = iota

	// StateOpen rejects all requests until the open timeout elapses.
	StateOpen

	// StateHalfOpen admits a limited number of probe requests to test
	// whether the dependency has recovered.
	StateHalfOpen
)

// String returns a human-readable state name.
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
