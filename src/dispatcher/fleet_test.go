package dispatcher_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"elevfleet/src/config"
	"elevfleet/src/dispatcher"
	"elevfleet/src/elev"
	"elevfleet/src/elev/elevtest"
	"elevfleet/src/types"
)

func carState(d *dispatcher.Dispatcher, id int) (types.State, int, bool) {
	entry, ok := d.Snapshot()[id]
	if !ok || entry == nil {
		return types.State{}, 0, false
	}
	return entry.State, entry.Floor, true
}

func TestSingleCarServesHallCall(t *testing.T) {
	floors, err := types.NewFloorRange(4)
	require.NoError(t, err)
	cfg := config.Default()
	cfg.NumCars = 1
	hw := elevtest.NewHardware(floors, 0)
	clk := clocktesting.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	d := dispatcher.New(cfg.DispatcherInbox, cfg.CarInbox)
	car := elev.NewCar(0, floors, hw, d.Attach(0), clk, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, car) }()

	hw.Press(types.BT_HallUp, 2)
	require.Eventually(t, func() bool {
		state, _, ok := carState(d, 0)
		return ok && state == types.MovingState(types.Up)
	}, 2*time.Second, time.Millisecond, "car starts towards the call")
	assert.Equal(t, []types.MotorDirection{types.MD_Up}, hw.MotorCommands())
	assert.True(t, hw.Lamp(types.BT_HallUp, 2))

	hw.SetFloor(2)
	require.Eventually(t, func() bool {
		door := hw.DoorLamp()
		state, floor, ok := carState(d, 0)
		return ok && floor == 2 && state == types.IdleState() && len(door) == 3 && !door[2]
	}, 2*time.Second, time.Millisecond, "car stops, opens the door, and goes idle once it closes")
	assert.Equal(t, []types.MotorDirection{types.MD_Up, types.MD_Stop}, hw.MotorCommands())
	assert.False(t, hw.Lamp(types.BT_HallUp, 2))
	assert.Equal(t, 2, hw.Indicator())

	cancel()
	require.NoError(t, <-done)
}

func TestHallCallGoesToIdleCar(t *testing.T) {
	floors, err := types.NewFloorRange(6)
	require.NoError(t, err)
	cfg := config.Default()
	clk := clocktesting.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	d := dispatcher.New(cfg.DispatcherInbox, cfg.CarInbox)
	near := elevtest.NewHardware(floors, 0)
	far := elevtest.NewHardware(floors, 5)
	cars := []dispatcher.Runner{
		elev.NewCar(0, floors, near, d.Attach(0), clocktesting.NewFakeClock(clk.Now()), cfg),
		elev.NewCar(1, floors, far, d.Attach(1), clocktesting.NewFakeClock(clk.Now()), cfg),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, cars...) }()

	require.Eventually(t, func() bool {
		_, floor, ok := carState(d, 1)
		return ok && floor == 5
	}, 2*time.Second, time.Millisecond, "both cars report in")

	// Pressed at the far car's panel, but the car at the ground floor is closer.
	far.Press(types.BT_HallUp, 1)
	require.Eventually(t, func() bool {
		return len(near.MotorCommands()) > 0
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, types.MD_Up, near.MotorCommands()[0])
	assert.Empty(t, far.MotorCommands())
	assert.True(t, near.Lamp(types.BT_HallUp, 1), "the light is shared by every car")

	cancel()
	require.NoError(t, <-done)
}
