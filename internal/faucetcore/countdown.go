package faucetcore

import (
	"time"

	"github.com/sirupsen/logrus"
)

// CountdownState is Counting while a positive remainder is held locally.
type CountdownState int

const (
	CountdownIdle CountdownState = iota
	CountdownCounting
)

func (s CountdownState) String() string {
	if s == CountdownCounting {
		return "counting"
	}
	return "idle"
}

// Countdown ticks a locally held "seconds until eligible" once per second.
// Seed replaces the local value; reaching zero stops the tick but does not
// imply eligibility, the next poll decides that.
type Countdown struct {
	sched     Scheduler
	log       *logrus.Entry
	rec       Recorder
	remaining int64
	state     CountdownState
	stop      Cancel

	onTick    []func(int64)
	onElapsed []func()
}

func NewCountdown(sched Scheduler, log *logrus.Entry, rec Recorder) *Countdown {
	if rec == nil {
		rec = nopRecorder{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Countdown{sched: sched, log: log.WithField("component", "countdown"), rec: rec}
}

// OnTick is called with the new remainder after every change.
func (c *Countdown) OnTick(fn func(int64)) { c.onTick = append(c.onTick, fn) }

// OnElapsed is called once each time Counting ends at zero by ticking.
func (c *Countdown) OnElapsed(fn func()) { c.onElapsed = append(c.onElapsed, fn) }

func (c *Countdown) Remaining() int64      { return c.remaining }
func (c *Countdown) State() CountdownState { return c.state }

// Seed discards the local value and restarts from seconds.
func (c *Countdown) Seed(seconds int64) {
	if seconds < 0 {
		seconds = 0
	}
	c.cancelTick()
	c.remaining = seconds
	if seconds == 0 {
		c.state = CountdownIdle
		c.emit()
		return
	}
	c.state = CountdownCounting
	c.log.WithField("seconds", seconds).Debug("countdown seeded")
	c.stop = c.sched.Every(time.Second, c.tick)
	c.emit()
}

// Stop drops to Idle without firing OnElapsed.
func (c *Countdown) Stop() {
	c.cancelTick()
	c.remaining = 0
	c.state = CountdownIdle
}

func (c *Countdown) tick() {
	if c.state != CountdownCounting {
		return
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining > 0 {
		c.emit()
		return
	}
	c.cancelTick()
	c.state = CountdownIdle
	c.emit()
	c.log.Debug("countdown elapsed")
	for _, fn := range c.onElapsed {
		fn()
	}
}

func (c *Countdown) emit() {
	c.rec.Countdown(c.remaining)
	for _, fn := range c.onTick {
		fn(c.remaining)
	}
}

func (c *Countdown) cancelTick() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}
