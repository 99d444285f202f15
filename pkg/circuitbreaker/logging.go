package circuitbreaker

import (
	"github.com/architeacher/resilience/pkg/logger"
)

// LoggingObserver writes a structured log entry for every state transition.
// Entering open logs at error level, entering half-open at warn level, and
// recovering to closed at info level.
type LoggingObserver struct {
	log logger.Logger
}

func NewLoggingObserver(log logger.Logger) *LoggingObserver {
	return &LoggingObserver{log: log}
}

func (o *LoggingObserver) OnStateChange(name string, from, to State) {
	event := o.log.Info()

	switch to {
	case StateOpen:
		event = o.log.Error()
	case StateHalfOpen:
		event = o.log.Warn()
	}

	event.
		Str("circuit_breaker", name).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("circuit breaker state changed")
}
