package rotator

import (
	"sync"
	"sync/atomic"
	"time"
)

// Handle cancels a scheduled callback.
type Handle interface {
	Stop()
}

// Scheduler runs fn every d until the returned handle is stopped.
type Scheduler interface {
	Every(d time.Duration, fn func()) Handle
}

// TickerScheduler is a Scheduler backed by time.Ticker. Each tick is handed
// to dispatch, which decides where the callback runs: the TUI posts it to its
// event loop and the HTTP server runs it under the controller lock. Ticks
// that reach dispatch after Stop are dropped.
type TickerScheduler struct {
	dispatch func(func())
}

// NewTickerScheduler returns a scheduler. A nil dispatch runs callbacks on
// the ticker goroutine.
func NewTickerScheduler(dispatch func(func())) *TickerScheduler {
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &TickerScheduler{dispatch: dispatch}
}

type tickerHandle struct {
	once    sync.Once
	done    chan struct{}
	stopped atomic.Bool
}

func (h *tickerHandle) Stop() {
	h.once.Do(func() {
		h.stopped.Store(true)
		close(h.done)
	})
}

func (s *TickerScheduler) Every(d time.Duration, fn func()) Handle {
	h := &tickerHandle{done: make(chan struct{})}
	ticker := time.NewTicker(d)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.done:
				return
			case <-ticker.C:
				s.dispatch(func() {
					if h.stopped.Load() {
						return
					}
					fn()
				})
			}
		}
	}()
	return h
}
