package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestDoorTimerFiresOnce(t *testing.T) {
	fc := clocktesting.NewFakePassiveClock(time.Unix(0, 0))
	dt := New(fc, 3*time.Second)

	assert.False(t, dt.TimedOut(), "inactive timer never times out")

	dt.Start()
	fc.SetTime(fc.Now().Add(2 * time.Second))
	assert.False(t, dt.TimedOut())

	fc.SetTime(fc.Now().Add(time.Second))
	assert.True(t, dt.TimedOut())
	assert.False(t, dt.TimedOut())
	assert.False(t, dt.Active())
}

func TestDoorTimerRestart(t *testing.T) {
	fc := clocktesting.NewFakePassiveClock(time.Unix(0, 0))
	dt := New(fc, 3*time.Second)

	dt.Start()
	fc.SetTime(fc.Now().Add(2 * time.Second))
	dt.Start()
	fc.SetTime(fc.Now().Add(2 * time.Second))
	assert.False(t, dt.TimedOut())

	fc.SetTime(fc.Now().Add(time.Second))
	assert.True(t, dt.TimedOut())
}
