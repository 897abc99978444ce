package faucetcore

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsPostedInOrder(t *testing.T) {
	l := NewLoop(testLog())
	defer l.Close()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	require.True(t, l.Do(func() {}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoopPostFromInsideLoop(t *testing.T) {
	l := NewLoop(testLog())
	defer l.Close()

	done := make(chan struct{})
	l.Post(func() {
		for i := 0; i < 100; i++ {
			l.Post(func() {})
		}
		l.Post(func() { close(done) })
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("nested posts never ran")
	}
}

func TestLoopTimers(t *testing.T) {
	l := NewLoop(testLog())
	defer l.Close()

	var fired, cancelled, ticks atomic.Int32
	l.After(10*time.Millisecond, func() { fired.Add(1) })
	stop := l.After(10*time.Millisecond, func() { cancelled.Add(1) })
	stop()
	every := l.Every(5*time.Millisecond, func() { ticks.Add(1) })

	assert.Eventually(t, func() bool { return fired.Load() == 1 && ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)
	l.Do(func() { every() })
	n := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, ticks.Load())
	assert.Zero(t, cancelled.Load())
}

func TestLoopGoPostsContinuation(t *testing.T) {
	l := NewLoop(testLog())
	defer l.Close()

	result := make(chan int, 1)
	l.Go(func() func() {
		v := 41
		return func() { result <- v + 1 }
	})
	select {
	case v := <-result:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("continuation not posted")
	}
}

func TestLoopSurvivesPanicAndCloses(t *testing.T) {
	l := NewLoop(testLog())
	l.Post(func() { panic("boom") })
	assert.True(t, l.Do(func() {}))

	var late atomic.Int32
	l.After(time.Millisecond, func() { late.Add(1) })
	l.Close()
	l.Close()
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, late.Load())
	assert.False(t, l.Do(func() {}))
}
