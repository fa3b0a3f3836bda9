package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCadenceFiresWholePeriods(t *testing.T) {
	c := Cadence{Period: 100 * time.Millisecond}

	assert.Equal(t, 0, c.Advance(60*time.Millisecond))
	assert.Equal(t, 1, c.Advance(60*time.Millisecond)) // 120ms accumulated
	assert.Equal(t, 0, c.Advance(60*time.Millisecond)) // 80ms remainder kept
	assert.Equal(t, 1, c.Advance(60*time.Millisecond))
}

func TestCadenceCatchesUpAfterLongTick(t *testing.T) {
	c := Cadence{Period: 100 * time.Millisecond}

	assert.Equal(t, 3, c.Advance(350*time.Millisecond))
	// 50ms remainder must survive the multi-firing tick.
	assert.Equal(t, 1, c.Advance(50*time.Millisecond))
}

func TestCadenceZeroPeriodNeverFires(t *testing.T) {
	c := Cadence{}
	assert.Equal(t, 0, c.Advance(time.Hour))
}

// A period that is not a multiple of the tick must stay within one firing
// of floor(total/period) at every point and converge without drift.
func TestCadenceNoCumulativeDrift(t *testing.T) {
	const (
		tick   = 320 * time.Millisecond
		period = 2 * time.Second
	)
	c := Cadence{Period: period}

	fired := 0
	var total time.Duration
	for i := 0; i < 10000; i++ {
		fired += c.Advance(tick)
		total += tick

		want := int(total / period)
		if fired != want && fired != want-1 {
			t.Fatalf("after %v: fired %d times, expected %d or %d", total, fired, want-1, want)
		}
	}
	assert.Equal(t, int(total/period), fired)
}

func TestCadenceReset(t *testing.T) {
	c := Cadence{Period: 100 * time.Millisecond}
	c.Advance(90 * time.Millisecond)
	c.Reset()
	assert.Equal(t, 0, c.Advance(90*time.Millisecond))
}

func TestFireCountSharesAccumulatorArithmetic(t *testing.T) {
	var acc time.Duration
	assert.Equal(t, 0, fireCount(&acc, 7*time.Second, 10*time.Second))
	assert.Equal(t, 1, fireCount(&acc, 7*time.Second, 10*time.Second))
	assert.Equal(t, 4*time.Second, acc)
	assert.Equal(t, 0, fireCount(&acc, time.Second, 0))
}
