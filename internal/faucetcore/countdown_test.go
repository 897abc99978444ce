package faucetcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownTicksToZero(t *testing.T) {
	s := newManualSched()
	c := NewCountdown(s, testLog(), nil)
	var seen []int64
	elapsed := 0
	c.OnTick(func(v int64) { seen = append(seen, v) })
	c.OnElapsed(func() { elapsed++ })

	c.Seed(3)
	require.Equal(t, CountdownCounting, c.State())
	assert.Equal(t, int64(3), c.Remaining())

	s.Advance(time.Second)
	assert.Equal(t, int64(2), c.Remaining())

	s.Advance(5 * time.Second)
	assert.Equal(t, int64(0), c.Remaining())
	assert.Equal(t, CountdownIdle, c.State())
	assert.Equal(t, 1, elapsed)
	assert.Equal(t, []int64{3, 2, 1, 0}, seen)
	assert.Equal(t, 0, s.ActiveTimers())

	// idle stays idle without a new seed
	s.Advance(10 * time.Second)
	assert.Equal(t, CountdownIdle, c.State())
	assert.Equal(t, 1, elapsed)
	for _, v := range seen {
		assert.GreaterOrEqual(t, v, int64(0))
	}
}

func TestCountdownSeedReplacesLocalValue(t *testing.T) {
	s := newManualSched()
	c := NewCountdown(s, testLog(), nil)
	c.Seed(100)
	s.Advance(10 * time.Second)
	require.Equal(t, int64(90), c.Remaining())

	c.Seed(95)
	assert.Equal(t, int64(95), c.Remaining())
	assert.Equal(t, 1, s.ActiveTimers())

	s.Advance(time.Second)
	assert.Equal(t, int64(94), c.Remaining())
}

func TestCountdownSeedZeroOrNegative(t *testing.T) {
	s := newManualSched()
	c := NewCountdown(s, testLog(), nil)
	elapsed := 0
	c.OnElapsed(func() { elapsed++ })

	c.Seed(-5)
	assert.Equal(t, CountdownIdle, c.State())
	assert.Equal(t, int64(0), c.Remaining())
	assert.Equal(t, 0, s.ActiveTimers())
	assert.Equal(t, 0, elapsed)
}

func TestCountdownStopCancelsTick(t *testing.T) {
	s := newManualSched()
	c := NewCountdown(s, testLog(), nil)
	c.Seed(30)
	c.Stop()
	assert.Equal(t, 0, s.ActiveTimers())
	s.Advance(time.Minute)
	assert.Equal(t, int64(0), c.Remaining())
	assert.Equal(t, CountdownIdle, c.State())
}
