package circuitbreaker

import "time"

// Clock abstracts the time source so that time-based transitions can be
// driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
