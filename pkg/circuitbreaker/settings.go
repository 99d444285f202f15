package circuitbreaker

import "time"

// Defaults applied by NewWithSettings for zero-valued fields.
const (
	// DefaultTimeout is the period an open circuit waits before probing.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRequests is the number of concurrent probe requests
	// admitted while half-open.
	DefaultMaxRequests uint32 = 1

	// DefaultFailureThreshold is the consecutive-failure count used by the
	// default ReadyToTrip predicate.
	DefaultFailureThreshold uint32 = 5
)

type (
	// ReadyToTripFunc is evaluated after every failure recorded in closed
	// state; returning true trips the circuit open.
	ReadyToTripFunc func(counts Counts) bool

	// IsSuccessfulFunc classifies an operation outcome. Errors it accepts
	// as successful do not feed the tripping logic.
	IsSuccessfulFunc func(err error) bool

	// Settings configures a circuit breaker. The zero value is usable:
	// every field falls back to a sane default at construction.
	Settings struct {
		// Name identifies the circuit breaker in logs, metrics and
		// observer notifications.
		Name string

		// MaxRequests is the maximum number of concurrent probe requests
		// allowed while half-open. Zero means 1.
		MaxRequests uint32

		// Interval is the cyclic period of the closed state after which
		// the internal counts are cleared. Zero means counts are never
		// cleared while closed.
		Interval time.Duration

		// Timeout is the period of the open state, after which the circuit
		// becomes half-open. Zero means DefaultTimeout.
		Timeout time.Duration

		// SuccessThreshold is the number of consecutive probe successes
		// required to close the circuit from half-open. Zero means
		// MaxRequests; values above MaxRequests are capped to it, since no
		// more probes than that are admitted within one half-open period.
		SuccessThreshold uint32

		// ReadyToTrip decides after every recorded failure whether the
		// circuit trips. The call whose failure satisfies the predicate has
		// already executed and keeps its own result; the trip applies to
		// subsequent calls. Nil means tripping after
		// DefaultFailureThreshold consecutive failures.
		ReadyToTrip ReadyToTripFunc

		// IsSuccessful classifies operation errors. Nil means any non-nil
		// error counts as a failure.
		IsSuccessful IsSuccessfulFunc

		// OnStateChange is invoked after every state transition, outside
		// the breaker's critical section. It must not block materially.
		// Use Subscribe to attach further consumers.
		OnStateChange func(name string, from, to State)

		// Clock supplies the time source. Nil means the system clock.
		Clock Clock
	}
)

func (s Settings) withDefaults() Settings {
	if s.MaxRequests == 0 {
		s.MaxRequests = DefaultMaxRequests
	}

	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}

	if s.SuccessThreshold == 0 || s.SuccessThreshold > s.MaxRequests {
		s.SuccessThreshold = s.MaxRequests
	}

	if s.ReadyToTrip == nil {
		s.ReadyToTrip = func(counts Counts) bool {
			return counts.ConsecutiveFailures >= DefaultFailureThreshold
		}
	}

	if s.IsSuccessful == nil {
		s.IsSuccessful = func(err error) bool {
			return err == nil
		}
	}

	if s.Clock == nil {
		s.Clock = systemClock{}
	}

	return s
}
