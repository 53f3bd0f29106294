package rotator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	fn      func()
	stopped bool
}

func (h *fakeHandle) Stop() { h.stopped = true }

// fakeScheduler records callbacks and fires them on demand.
type fakeScheduler struct {
	handles []*fakeHandle
}

func (s *fakeScheduler) Every(_ time.Duration, fn func()) Handle {
	h := &fakeHandle{fn: fn}
	s.handles = append(s.handles, h)
	return h
}

func (s *fakeScheduler) live() []*fakeHandle {
	var out []*fakeHandle
	for _, h := range s.handles {
		if !h.stopped {
			out = append(out, h)
		}
	}
	return out
}

func (s *fakeScheduler) tick(n int) {
	for i := 0; i < n; i++ {
		for _, h := range s.live() {
			h.fn()
		}
	}
}

func TestTimerResetRestoresDuration(t *testing.T) {
	sched := &fakeScheduler{}
	timer := NewTimer(sched, 10*time.Second, nil)

	timer.Reset()
	sched.tick(3)
	require.Equal(t, 7, timer.State().LeftSeconds)

	timer.Pause(SourceUser)
	timer.Reset()

	st := timer.State()
	assert.Equal(t, 10, st.LeftSeconds)
	assert.False(t, st.Paused)
	assert.Equal(t, SourceNone, st.Source)
	assert.Len(t, sched.live(), 1)
}

func TestTimerPauseSources(t *testing.T) {
	sched := &fakeScheduler{}
	timer := NewTimer(sched, time.Minute, nil)
	timer.Reset()

	require.True(t, timer.Pause(SourceModal))
	assert.False(t, timer.Pause(SourceUser), "pause is idempotent")
	assert.Empty(t, sched.live())

	assert.False(t, timer.Resume(SourceVisibility))
	paused, src := timer.Paused()
	assert.True(t, paused)
	assert.Equal(t, SourceModal, src)

	assert.True(t, timer.Resume(SourceModal))
	assert.Len(t, sched.live(), 1)

	timer.Pause(SourceVisibility)
	assert.True(t, timer.Resume(SourceUser), "user resume overrides any source")
}

func TestTimerPauseRequiresRunning(t *testing.T) {
	timer := NewTimer(&fakeScheduler{}, time.Minute, nil)
	assert.False(t, timer.Pause(SourceUser))
	assert.False(t, timer.Resume(SourceUser))
}

func TestTimerExpiry(t *testing.T) {
	sched := &fakeScheduler{}
	expired := 0
	var timer *Timer
	timer = NewTimer(sched, 3*time.Second, func() {
		expired++
		timer.Reset()
	})
	timer.Reset()

	sched.tick(2)
	assert.Equal(t, 0, expired)
	sched.tick(1)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 3, timer.State().LeftSeconds)
	assert.Len(t, sched.live(), 1, "the old tick is cancelled before the new one starts")
}

func TestTimerResumeAfterZeroRestarts(t *testing.T) {
	sched := &fakeScheduler{}
	timer := NewTimer(sched, 2*time.Second, func() {})
	timer.Reset()
	sched.tick(2)
	require.Equal(t, 0, timer.State().LeftSeconds)

	timer.Pause(SourceUser)
	timer.Resume(SourceUser)
	assert.Equal(t, 2, timer.State().LeftSeconds)
}

func TestTimerStopIsIdle(t *testing.T) {
	sched := &fakeScheduler{}
	timer := NewTimer(sched, time.Minute, nil)
	timer.Reset()
	timer.Pause(SourceModal)
	timer.Stop()

	st := timer.State()
	assert.False(t, st.Running)
	assert.False(t, st.Paused)
	assert.False(t, timer.Active())
	assert.Empty(t, sched.live())
}

func TestTimerStateProgress(t *testing.T) {
	sched := &fakeScheduler{}
	timer := NewTimer(sched, 10*time.Second, func() {})
	timer.Reset()
	sched.tick(5)

	st := timer.State()
	assert.InDelta(t, 0.5, st.Percent, 1e-9)
	assert.True(t, st.Pulsing)
	assert.Equal(t, "00:05", st.Clock())

	timer.Pause(SourceUser)
	assert.False(t, timer.State().Pulsing)
}

func TestTimerStateClock(t *testing.T) {
	assert.Equal(t, "04:00", TimerState{LeftSeconds: 240}.Clock())
	assert.Equal(t, "01:05", TimerState{LeftSeconds: 65}.Clock())
	assert.Equal(t, "00:00", TimerState{LeftSeconds: -1}.Clock())
}

func TestParsePauseSource(t *testing.T) {
	src, ok := ParsePauseSource("modal")
	assert.True(t, ok)
	assert.Equal(t, SourceModal, src)

	_, ok = ParsePauseSource("bogus")
	assert.False(t, ok)
}
