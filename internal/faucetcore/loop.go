package faucetcore

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Cancel stops a scheduled task. Call it from the scheduler; repeated calls are fine.
type Cancel func()

// Scheduler runs callbacks one at a time. Every component in this package
// touches its state only from inside scheduler callbacks.
type Scheduler interface {
	// Post queues fn to run on the scheduler.
	Post(fn func())
	// Every runs fn every d until cancelled. The first run is after d.
	Every(d time.Duration, fn func()) Cancel
	// After runs fn once after d unless cancelled first.
	After(d time.Duration, fn func()) Cancel
	// Go runs work off the scheduler and posts the continuation it returns.
	Go(work func() func())
}

// Loop is the production Scheduler: a single goroutine draining a queue.
type Loop struct {
	log *logrus.Entry

	mu      sync.Mutex
	queue   []func()
	timers  map[int]*time.Timer
	nextID  int
	closed  bool
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

func NewLoop(log *logrus.Entry) *Loop {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	l := &Loop{
		log:     log.WithField("component", "loop"),
		timers:  map[int]*time.Timer{},
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		select {
		case <-l.done:
			return
		case <-l.wake:
		}
		for {
			l.mu.Lock()
			if l.closed || len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			fn := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.WithField("panic", r).Error("callback panicked")
		}
	}()
	fn()
}

func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) After(d time.Duration, fn func()) Cancel {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return func() {}
	}
	id := l.nextID
	l.nextID++
	var cancelled atomic.Bool
	l.timers[id] = time.AfterFunc(d, func() {
		l.mu.Lock()
		delete(l.timers, id)
		l.mu.Unlock()
		l.Post(func() {
			if !cancelled.Load() {
				fn()
			}
		})
	})
	return func() {
		cancelled.Store(true)
		l.mu.Lock()
		if t, ok := l.timers[id]; ok {
			t.Stop()
			delete(l.timers, id)
		}
		l.mu.Unlock()
	}
}

func (l *Loop) Every(d time.Duration, fn func()) Cancel {
	var stopped atomic.Bool
	var cur Cancel
	var arm func()
	arm = func() {
		cur = l.After(d, func() {
			if stopped.Load() {
				return
			}
			fn()
			if !stopped.Load() {
				arm()
			}
		})
	}
	arm()
	return func() {
		stopped.Store(true)
		cur()
	}
}

func (l *Loop) Go(work func() func()) {
	go func() {
		next := work()
		if next != nil {
			l.Post(next)
		}
	}()
}

// Do runs fn on the loop and waits for it. It must not be called from the
// loop itself. Returns false when the loop is closed.
func (l *Loop) Do(fn func()) bool {
	ran := make(chan struct{})
	l.Post(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
		return true
	case <-l.stopped:
		return false
	}
}

// Close stops every timer and the loop goroutine. Queued callbacks are dropped.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	for id, t := range l.timers {
		t.Stop()
		delete(l.timers, id)
	}
	l.queue = nil
	l.mu.Unlock()
	close(l.done)
	<-l.stopped
}
