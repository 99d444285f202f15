package circuitbreaker

// Counts holds the request statistics of the current generation. All
// counters are cleared whenever the breaker starts a new generation.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// FailureRatio returns the fraction of recorded requests that failed,
// or 0 when no requests have been recorded yet.
func (c Counts) FailureRatio() float64 {
	if c.Requests == 0 {
		return 0
	}

	return float64(c.TotalFailures) / float64(c.Requests)
}

func (c *Counts) onRequest() {
	c.Requests++
}

func (c *Counts) onSuccess() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) onFailure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

func (c *Counts) clear() {
	*c = Counts{}
}
