// Package countdown drives a periodic callback with scoped cleanup.
package countdown

import (
	"sync"
	"time"
)

// Ticker calls a function once per interval on a single goroutine until it is
// stopped or the function returns false.
type Ticker struct {
	stopOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

// Start begins ticking. fn receives the tick time; returning false ends the
// ticker from inside.
func Start(interval time.Duration, fn func(time.Time) bool) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	t := &Ticker{
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go t.run(interval, fn)
	return t
}

func (t *Ticker) run(interval time.Duration, fn func(time.Time) bool) {
	defer close(t.done)
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-t.quit:
			return
		case now := <-tk.C:
			// quit wins over a tick that raced with Stop.
			select {
			case <-t.quit:
				return
			default:
			}
			if !fn(now) {
				return
			}
		}
	}
}

// Stop ends the ticker and waits for the goroutine to exit. No callback runs
// after Stop returns. Safe to call more than once and on a nil Ticker. Calling
// Stop from inside the callback deadlocks; return false instead.
func (t *Ticker) Stop() {
	if t == nil {
		return
	}
	t.stopOnce.Do(func() { close(t.quit) })
	<-t.done
}

// Running reports whether the goroutine is still alive.
func (t *Ticker) Running() bool {
	if t == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// Done is closed once the ticker goroutine has exited.
func (t *Ticker) Done() <-chan struct{} {
	return t.done
}
