package ticker

import (
	"sync"
	"time"
)

// Manual is a Factory whose tickers fire only when told to. Tests use it to
// drive loops deterministically.
type Manual struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (m *Manual) New(time.Duration) Ticker {
	t := &manualTicker{c: make(chan time.Time)}
	m.mu.Lock()
	m.tickers = append(m.tickers, t)
	m.mu.Unlock()
	return t
}

// Fire delivers one tick to the most recently created ticker that is still
// running and reports whether one was delivered.
func (m *Manual) Fire() bool {
	m.mu.Lock()
	var target *manualTicker
	for i := len(m.tickers) - 1; i >= 0; i-- {
		if !m.tickers[i].stopped() {
			target = m.tickers[i]
			break
		}
	}
	m.mu.Unlock()
	if target == nil {
		return false
	}
	select {
	case target.c <- time.Time{}:
		return true
	case <-time.After(time.Second):
		return false
	}
}

// Active returns the number of tickers not yet stopped.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tickers {
		if !t.stopped() {
			n++
		}
	}
	return n
}

type manualTicker struct {
	c    chan time.Time
	mu   sync.Mutex
	done bool
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	t.done = true
	t.mu.Unlock()
}

func (t *manualTicker) stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}
