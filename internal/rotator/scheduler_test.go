package rotator

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestTickerSchedulerStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	var n atomic.Int32
	h := NewTickerScheduler(nil).Every(5*time.Millisecond, func() { n.Add(1) })

	require.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, time.Millisecond)
	h.Stop()
	h.Stop()

	after := n.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, n.Load())
}

func TestTickerSchedulerDropsStaleTicks(t *testing.T) {
	defer goleak.VerifyNone(t)

	queued := make(chan func(), 16)
	s := NewTickerScheduler(func(fn func()) {
		select {
		case queued <- fn:
		default:
		}
	})

	var n atomic.Int32
	h := s.Every(time.Millisecond, func() { n.Add(1) })

	var fn func()
	select {
	case fn = <-queued:
	case <-time.After(time.Second):
		t.Fatal("no tick dispatched")
	}
	h.Stop()

	fn()
	assert.Zero(t, n.Load())
}
