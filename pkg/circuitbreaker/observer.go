package circuitbreaker

type (
	// StateChangeObserver receives state transition notifications. Multiple
	// observers can subscribe to one circuit breaker; each is invoked at
	// most once per actual transition, outside the breaker's critical
	// section.
	StateChangeObserver interface {
		OnStateChange(name string, from, to State)
	}

	// ObserverFunc adapts a plain function to the StateChangeObserver
	// interface.
	ObserverFunc func(name string, from, to State)

	stateChange struct {
		from State
		to   State
	}
)

// OnStateChange implements StateChangeObserver.
func (f ObserverFunc) OnStateChange(name string, from, to State) {
	f(name, from, to)
}
