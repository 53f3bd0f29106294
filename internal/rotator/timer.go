package rotator

import (
	"fmt"
	"time"
)

// PauseSource records who paused the timer. Only the same source, or the
// user, may resume it.
type PauseSource string

const (
	SourceNone       PauseSource = ""
	SourceUser       PauseSource = "user"
	SourceModal      PauseSource = "modal"
	SourceVisibility PauseSource = "visibility"
)

// ParsePauseSource accepts "user", "modal" and "visibility".
func ParsePauseSource(s string) (PauseSource, bool) {
	switch src := PauseSource(s); src {
	case SourceUser, SourceModal, SourceVisibility:
		return src, true
	}
	return SourceNone, false
}

// PulseThreshold is how close to expiry the progress display starts pulsing.
const PulseThreshold = 5 * time.Second

// TimerState is a snapshot of the countdown.
type TimerState struct {
	TotalSeconds int         `json:"totalSeconds"`
	LeftSeconds  int         `json:"leftSeconds"`
	Running      bool        `json:"running"`
	Paused       bool        `json:"paused"`
	Source       PauseSource `json:"pauseSource,omitempty"`
	Percent      float64     `json:"percent"`
	Pulsing      bool        `json:"pulsing"`
}

// Clock formats the time left as mm:ss.
func (s TimerState) Clock() string {
	left := max(s.LeftSeconds, 0)
	return fmt.Sprintf("%02d:%02d", left/60, left%60)
}

// Timer is the verse countdown. It is Idle (nothing scheduled), Running or
// Paused. It is not safe for concurrent use; the controller's host
// serializes all calls, including the scheduled ticks.
type Timer struct {
	sched    Scheduler
	total    int
	left     int
	paused   bool
	source   PauseSource
	handle   Handle
	onExpire func()
}

// NewTimer returns an idle timer counting down from total.
func NewTimer(sched Scheduler, total time.Duration, onExpire func()) *Timer {
	t := &Timer{sched: sched, onExpire: onExpire}
	t.SetTotal(total)
	t.left = t.total
	return t
}

// SetTotal changes the full duration. The current countdown is untouched.
func (t *Timer) SetTotal(d time.Duration) {
	t.total = max(int(d/time.Second), 1)
}

// Total is the full countdown duration.
func (t *Timer) Total() time.Duration {
	return time.Duration(t.total) * time.Second
}

// Running reports whether a tick is scheduled.
func (t *Timer) Running() bool { return t.handle != nil }

// Paused reports whether the timer is paused and by whom.
func (t *Timer) Paused() (bool, PauseSource) { return t.paused, t.source }

// Active is true when the timer is running or paused.
func (t *Timer) Active() bool { return t.handle != nil || t.paused }

func (t *Timer) schedule() {
	t.handle = t.sched.Every(time.Second, t.Tick)
}

func (t *Timer) cancel() {
	if t.handle != nil {
		t.handle.Stop()
		t.handle = nil
	}
}

// Reset restores the full duration, clears any pause and starts ticking.
func (t *Timer) Reset() {
	t.cancel()
	t.left = t.total
	t.paused = false
	t.source = SourceNone
	t.schedule()
}

// Stop cancels the pending tick and clears any pause.
func (t *Timer) Stop() {
	t.cancel()
	t.paused = false
	t.source = SourceNone
}

// Pause moves a running timer to Paused(src). It reports whether the state
// changed.
func (t *Timer) Pause(src PauseSource) bool {
	if t.paused || t.handle == nil {
		return false
	}
	t.cancel()
	t.paused = true
	t.source = src
	return true
}

// Resume restarts a paused timer. A user resume always succeeds; any other
// source must match the one that paused.
func (t *Timer) Resume(src PauseSource) bool {
	if !t.paused {
		return false
	}
	if src != SourceUser && src != t.source {
		return false
	}
	t.paused = false
	t.source = SourceNone
	if t.left <= 0 {
		t.left = t.total
	}
	t.schedule()
	return true
}

// Tick advances the countdown by one second. At zero it calls onExpire,
// which is expected to reset the timer.
func (t *Timer) Tick() {
	if t.handle == nil || t.paused {
		return
	}
	t.left--
	if t.left > 0 {
		return
	}
	t.left = 0
	if t.onExpire == nil {
		t.Reset()
		return
	}
	t.onExpire()
}

// State returns a snapshot for display.
func (t *Timer) State() TimerState {
	s := TimerState{
		TotalSeconds: t.total,
		LeftSeconds:  t.left,
		Running:      t.handle != nil,
		Paused:       t.paused,
		Source:       t.source,
	}
	if t.total > 0 {
		s.Percent = float64(t.total-t.left) / float64(t.total)
	}
	s.Pulsing = s.Running && t.left > 0 && time.Duration(t.left)*time.Second <= PulseThreshold
	return s
}
