package circuitbreaker

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the serializable subset of Settings, suitable for loading from
// the environment. Trip behavior is expressed with plain thresholds and
// compiled into a ReadyToTrip predicate by Settings.
type Config struct {
	// Name identifies the circuit breaker in logs and metrics.
	Name string `envconfig:"NAME"`

	// Enabled determines whether the circuit breaker is active.
	// When false, New returns nil and Execute passes through directly.
	Enabled bool `envconfig:"ENABLED" default:"true"`

	// MaxRequests is the maximum number of probe requests allowed to pass
	// through when the circuit breaker is half-open. If MaxRequests is 0,
	// the circuit breaker allows only 1 request.
	MaxRequests uint32 `envconfig:"MAX_REQUESTS" default:"1"`

	// Interval is the cyclic period of the closed state for the circuit
	// breaker to clear the internal counts. If Interval is 0, the circuit
	// breaker doesn't clear internal counts during the closed state.
	Interval time.Duration `envconfig:"INTERVAL" default:"0s"`

	// Timeout is the period of the open state, after which the state of the
	// circuit breaker becomes half-open. If Timeout is 0, the timeout value
	// defaults to 60 seconds.
	Timeout time.Duration `envconfig:"TIMEOUT" default:"60s"`

	// FailureThreshold is the number of consecutive failures required to
	// trip the circuit breaker from closed to open state. If 0, it defaults
	// to 5.
	FailureThreshold uint32 `envconfig:"FAILURE_THRESHOLD" default:"5"`

	// FailureRatio additionally trips the circuit breaker once at least
	// MinRequests outcomes have been recorded in the current window and the
	// failed fraction reaches this value. Zero disables ratio-based
	// tripping.
	FailureRatio float64 `envconfig:"FAILURE_RATIO" default:"0"`

	// MinRequests is the minimum number of recorded requests in the current
	// window before FailureRatio is considered.
	MinRequests uint32 `envconfig:"MIN_REQUESTS" default:"10"`

	// SuccessThreshold is the number of consecutive probe successes
	// required to close the circuit from half-open. Zero means MaxRequests.
	SuccessThreshold uint32 `envconfig:"SUCCESS_THRESHOLD" default:"0"`
}

// FromEnv loads a Config from environment variables under the given prefix,
// e.g. FromEnv("PAYMENTS_CB") reads PAYMENTS_CB_ENABLED, PAYMENTS_CB_TIMEOUT
// and so on.
func FromEnv(prefix string) (Config, error) {
	var cfg Config

	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load circuit breaker config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a balanced configuration suitable for most
// dependencies: trip after 5 consecutive failures, probe after a minute.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		Enabled:          true,
		MaxRequests:      1,
		Timeout:          60 * time.Second,
		FailureThreshold: 5,
	}
}

// AggressiveConfig trips early and probes again quickly, for dependencies
// with cheap calls and good fallbacks.
func AggressiveConfig(name string) Config {
	return Config{
		Name:             name,
		Enabled:          true,
		MaxRequests:      1,
		Timeout:          10 * time.Second,
		FailureThreshold: 3,
		FailureRatio:     0.5,
		MinRequests:      5,
	}
}

// ConservativeConfig tolerates more failures before tripping and closes
// again only after several successful probes, for critical dependencies
// without fallbacks.
func ConservativeConfig(name string) Config {
	return Config{
		Name:             name,
		Enabled:          true,
		MaxRequests:      3,
		Interval:         2 * time.Minute,
		Timeout:          2 * time.Minute,
		FailureThreshold: 10,
		FailureRatio:     0.8,
		MinRequests:      20,
		SuccessThreshold: 3,
	}
}

// Settings expands the Config into full Settings with a compiled
// ReadyToTrip predicate.
func (c Config) Settings() Settings {
	failureThreshold := c.FailureThreshold
	if failureThreshold == 0 {
		failureThreshold = DefaultFailureThreshold
	}

	readyToTrip := func(counts Counts) bool {
		if counts.ConsecutiveFailures >= failureThreshold {
			return true
		}

		if c.FailureRatio > 0 && counts.Requests >= c.MinRequests {
			return counts.FailureRatio() >= c.FailureRatio
		}

		return false
	}

	return Settings{
		Name:             c.Name,
		MaxRequests:      c.MaxRequests,
		Interval:         c.Interval,
		Timeout:          c.Timeout,
		SuccessThreshold: c.SuccessThreshold,
		ReadyToTrip:      readyToTrip,
	}
}
