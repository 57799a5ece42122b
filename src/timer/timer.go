package timer

import (
	"log/slog"
	"time"

	"k8s.io/utils/clock"
)

// DoorTimer is a single-shot timer polled by the car loop. It is owned by one car and not safe
// for concurrent use.
type DoorTimer struct {
	clock    clock.PassiveClock
	duration time.Duration
	deadline time.Time
	active   bool
}

func New(c clock.PassiveClock, duration time.Duration) *DoorTimer {
	return &DoorTimer{clock: c, duration: duration}
}

// Start starts the timer, or restarts it if it is already running.
func (t *DoorTimer) Start() {
	t.deadline = t.clock.Now().Add(t.duration)
	t.active = true
}

func (t *DoorTimer) Active() bool {
	return t.active
}

// TimedOut reports expiry once: the timer is stopped when it is found expired.
func (t *DoorTimer) TimedOut() bool {
	if !t.active || t.clock.Now().Before(t.deadline) {
		return false
	}
	t.active = false
	slog.Debug("Timer timed out")
	return true
}
