package sim

import "time"

// Cadence converts the fixed engine tick into an independent logical
// period. Each recurring rule owns one; every tick the rule adds the tick
// length and fires as many times as whole periods have elapsed. The
// remainder is preserved rather than reset, so a period that is not a
// multiple of the tick length drifts by at most one firing at any point
// and never accumulates error.
type Cadence struct {
	Period time.Duration
	acc    time.Duration
}

// Advance adds dt to the accumulator and returns how many times the rule
// fires this tick: floor(acc/period), possibly more than once when dt
// spans several periods, zero for a non-positive period.
func (c *Cadence) Advance(dt time.Duration) int {
	if c.Period <= 0 {
		return 0
	}
	c.acc += dt
	n := int(c.acc / c.Period)
	c.acc -= time.Duration(n) * c.Period
	return n
}

// Reset drops any accumulated remainder.
func (c *Cadence) Reset() {
	c.acc = 0
}

// fireCount is the same accumulator arithmetic applied to a bare Duration
// field, used for the per-agent shedding timers.
func fireCount(acc *time.Duration, dt, period time.Duration) int {
	if period <= 0 {
		return 0
	}
	*acc += dt
	n := int(*acc / period)
	*acc -= time.Duration(n) * period
	return n
}
