// Package ticker runs cancelable periodic callbacks.
package ticker

import (
	"sync"
	"time"
)

// Ticker is the subset of *time.Ticker the loop needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Factory creates a Ticker firing every d.
type Factory func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Real is a Factory backed by time.NewTicker.
func Real(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Loop calls a function on every tick until stopped. At most one callback
// goroutine is registered at a time.
type Loop struct {
	interval time.Duration
	factory  Factory

	mu     sync.Mutex
	cancel func()
}

// NewLoop returns a stopped loop. A nil factory means Real.
func NewLoop(interval time.Duration, factory Factory) *Loop {
	if factory == nil {
		factory = Real
	}
	return &Loop{interval: interval, factory: factory}
}

// Start begins calling fn on every tick. It reports false and does nothing
// if the loop is already running.
func (l *Loop) Start(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return false
	}

	t := l.factory(l.interval)
	done := make(chan struct{})
	var once sync.Once
	l.cancel = func() {
		once.Do(func() {
			close(done)
			t.Stop()
		})
	}

	go func() {
		for {
			select {
			case <-done:
				return
			case <-t.C():
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()
	return true
}

// Stop cancels the running callback. It reports whether anything was running.
// The callback may still be executing when Stop returns, but it will not be called again.
func (l *Loop) Stop() bool {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}
