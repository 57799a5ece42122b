package dispatcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elevfleet/src/types"
)

func testFloors(t *testing.T) types.FloorRange {
	t.Helper()
	floors, err := types.NewFloorRange(8)
	require.NoError(t, err)
	return floors
}

func TestCost(t *testing.T) {
	floors := testFloors(t)
	tests := []struct {
		name  string
		car   ViewEntry
		floor int
		dir   types.Direction
		want  int
	}{
		{name: "idle", car: ViewEntry{Floor: 0, State: types.IdleState()}, floor: 3, dir: types.Up, want: 3},
		{name: "moving with load", car: ViewEntry{Floor: 5, State: types.MovingState(types.Up), NumRequests: 2}, floor: 3, dir: types.Up, want: 7},
		{name: "moving the other way", car: ViewEntry{Floor: 2, State: types.MovingState(types.Down)}, floor: 4, dir: types.Up, want: 4},
		{name: "still at the floor", car: ViewEntry{Floor: 3, State: types.StillState(types.Up)}, floor: 3, dir: types.Up, want: 3},
		{name: "still facing away", car: ViewEntry{Floor: 3, State: types.StillState(types.Down)}, floor: 3, dir: types.Up, want: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Cost(tt.car, floors.MustFloor(tt.floor), tt.dir))
		})
	}
}

type channels struct {
	d    *Dispatcher
	cars map[int]types.CarChannels
}

func newTestDispatcher(ids ...int) channels {
	d := New(16, 16)
	c := channels{d: d, cars: make(map[int]types.CarChannels)}
	for _, id := range ids {
		c.cars[id] = d.Attach(id)
	}
	return c
}

func (c channels) received(id int) []types.Message {
	var msgs []types.Message
	for {
		select {
		case msg := <-c.cars[id].FromDispatcher:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func TestRequestGoesToCheapestCar(t *testing.T) {
	floors := testFloors(t)
	c := newTestDispatcher(0, 1)
	c.d.handleMessage(types.NewElevInfo(0, floors.MustFloor(5), types.MovingState(types.Up), 2))

	req := types.NewRequest(0, floors.MustFloor(3), types.Up)
	c.d.handleMessage(req)

	assert.Empty(t, c.received(0))
	got := c.received(1)
	require.Len(t, got, 1)
	assert.Equal(t, req.ID, got[0].ID)
}

func TestRequestTieGoesToLowestID(t *testing.T) {
	floors := testFloors(t)
	c := newTestDispatcher(3, 1, 2)
	for _, id := range []int{1, 2, 3} {
		c.d.handleMessage(types.NewElevInfo(id, floors.MustFloor(4), types.IdleState(), 0))
	}

	c.d.handleMessage(types.NewRequest(3, floors.MustFloor(2), types.Down))

	assert.Len(t, c.received(1), 1)
	assert.Empty(t, c.received(2))
	assert.Empty(t, c.received(3))
}

func TestRequestPrefersCarGoingTheSameWay(t *testing.T) {
	floors := testFloors(t)
	c := newTestDispatcher(0, 1)
	c.d.handleMessage(types.NewElevInfo(0, floors.MustFloor(2), types.MovingState(types.Down), 0))
	c.d.handleMessage(types.NewElevInfo(1, floors.MustFloor(2), types.MovingState(types.Up), 0))

	c.d.handleMessage(types.NewRequest(0, floors.MustFloor(4), types.Up))

	assert.Empty(t, c.received(0))
	assert.Len(t, c.received(1), 1)
}

func TestHallLightIsBroadcast(t *testing.T) {
	floors := testFloors(t)
	c := newTestDispatcher(0, 1, 2)
	light := types.NewHallLight(1, floors.MustFloor(2), types.Up, true)

	c.d.handleMessage(light)

	for _, id := range []int{0, 1, 2} {
		got := c.received(id)
		require.Len(t, got, 1, "car %d", id)
		assert.Equal(t, light, got[0])
	}
}

func TestFullCarInboxDropsHallLight(t *testing.T) {
	floors := testFloors(t)
	d := New(1, 1)
	ch := d.Attach(0)
	light := types.NewHallLight(0, floors.MustFloor(1), types.Up, true)

	d.handleMessage(light)
	d.handleMessage(light)

	assert.Len(t, ch.FromDispatcher, 1)
}

func TestRequestSkipsCarWithFullInbox(t *testing.T) {
	floors := testFloors(t)
	d := New(4, 1)
	c := channels{d: d, cars: map[int]types.CarChannels{0: d.Attach(0), 1: d.Attach(1)}}
	d.handleMessage(types.NewElevInfo(1, floors.MustFloor(7), types.MovingState(types.Down), 3))
	d.handleMessage(types.NewHallLight(1, floors.MustFloor(5), types.Down, true))
	require.Len(t, c.received(1), 1)

	req := types.NewRequest(0, floors.MustFloor(1), types.Up)
	require.Less(t, Cost(*d.view[0], req.Floor, req.Dir), Cost(*d.view[1], req.Floor, req.Dir))
	d.handleMessage(req)

	got := c.received(1)
	require.Len(t, got, 1)
	assert.Equal(t, req.ID, got[0].ID)
	assert.Empty(t, d.backlog)
}

func TestRequestHeldUntilACarHasRoom(t *testing.T) {
	floors := testFloors(t)
	d := New(4, 1)
	c := channels{d: d, cars: map[int]types.CarChannels{0: d.Attach(0), 1: d.Attach(1)}}
	d.handleMessage(types.NewHallLight(1, floors.MustFloor(5), types.Down, true))

	req := types.NewRequest(0, floors.MustFloor(2), types.Up)
	d.handleMessage(req)
	require.Len(t, d.backlog, 1)

	d.retryBacklog()
	assert.Len(t, d.backlog, 1, "still no room anywhere")

	assert.Equal(t, types.HallLightMsg, c.received(1)[0].Type)
	d.retryBacklog()

	assert.Empty(t, d.backlog)
	got := c.received(1)
	require.Len(t, got, 1)
	assert.Equal(t, req.ID, got[0].ID)
	assert.Len(t, c.received(0), 1, "car 0 keeps only the hall light")
}

func TestRunDeliversHeldRequest(t *testing.T) {
	floors := testFloors(t)
	d := New(4, 1)
	drained := make(chan struct{})
	got := make(chan types.Message, 1)
	car := &fakeCar{id: 0, ch: d.Attach(0), fn: func(_ context.Context, ch types.CarChannels) error {
		<-ch.FromDispatcher
		close(drained)
		for msg := range ch.FromDispatcher {
			if msg.Type == types.RequestMsg {
				got <- msg
				return nil
			}
		}
		return errors.New("channel closed before request")
	}}
	d.inbox <- types.NewHallLight(0, floors.MustFloor(1), types.Up, true)
	req := types.NewRequest(0, floors.MustFloor(3), types.Down)
	d.inbox <- req

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background(), car) }()
	<-drained
	// Any message wakes the loop so it retries held calls.
	d.inbox <- types.NewElevInfo(0, floors.MustFloor(1), types.IdleState(), 0)

	select {
	case msg := <-got:
		assert.Equal(t, req.ID, msg.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("held request never reached the car")
	}
	require.NoError(t, <-done)
}

func TestSnapshotIsACopy(t *testing.T) {
	floors := testFloors(t)
	c := newTestDispatcher(0, 1)
	c.d.handleMessage(types.NewElevInfo(1, floors.MustFloor(6), types.StillState(types.Down), 4))

	snapshot := c.d.Snapshot()
	want := FleetView{
		0: {ID: 0, State: types.IdleState()},
		1: {ID: 1, Floor: 6, State: types.StillState(types.Down), NumRequests: 4},
	}
	if diff := cmp.Diff(want, snapshot); diff != "" {
		t.Errorf("Unexpected snapshot (-want +got): %v", diff)
	}

	snapshot[1].Floor = 0
	assert.Equal(t, 6, c.d.view[1].Floor)
}

func TestInfoFromUnknownCarIsIgnored(t *testing.T) {
	floors := testFloors(t)
	c := newTestDispatcher(0)

	c.d.handleMessage(types.NewElevInfo(7, floors.MustFloor(1), types.IdleState(), 0))

	assert.NotContains(t, c.d.view, 7)
}

func TestServeHTTP(t *testing.T) {
	floors := testFloors(t)
	c := newTestDispatcher(0)
	c.d.handleMessage(types.NewElevInfo(0, floors.MustFloor(2), types.MovingState(types.Up), 1))

	rec := httptest.NewRecorder()
	c.d.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fleet", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"0":{"id":0,"floor":2,"state":"Moving(up)","numRequests":1}}`, rec.Body.String())
}

// fakeCar runs fn with its channels in place of a car loop.
type fakeCar struct {
	id int
	ch types.CarChannels
	fn func(ctx context.Context, ch types.CarChannels) error
}

func (f *fakeCar) ID() int { return f.id }

func (f *fakeCar) Run(ctx context.Context) error { return f.fn(ctx, f.ch) }

// untilShutdown is a car that runs until it is sent Shutdown.
func untilShutdown(_ context.Context, ch types.CarChannels) error {
	for msg := range ch.FromDispatcher {
		if msg.Type == types.ShutdownMsg {
			return nil
		}
	}
	return errors.New("channel closed before shutdown")
}

func TestRunEmptyFleet(t *testing.T) {
	assert.ErrorIs(t, New(1, 1).Run(context.Background()), ErrEmptyFleet)
}

func TestRunUnattachedCar(t *testing.T) {
	d := New(1, 1)
	d.Attach(0)
	car := &fakeCar{id: 1, fn: untilShutdown}
	assert.Error(t, d.Run(context.Background(), car))
}

func TestRunReturnsWhenAllCarsExit(t *testing.T) {
	d := New(4, 4)
	var cars []Runner
	for id := range 3 {
		cars = append(cars, &fakeCar{id: id, ch: d.Attach(id), fn: func(context.Context, types.CarChannels) error {
			return nil
		}})
	}

	require.NoError(t, d.Run(context.Background(), cars...))
	assert.Empty(t, d.Snapshot())
}

func TestRunCarFailureShutsDownFleet(t *testing.T) {
	errBoom := errors.New("boom")
	d := New(4, 4)
	failing := &fakeCar{id: 0, ch: d.Attach(0), fn: func(context.Context, types.CarChannels) error {
		return errBoom
	}}
	healthy := &fakeCar{id: 1, ch: d.Attach(1), fn: untilShutdown}

	assert.ErrorIs(t, d.Run(context.Background(), failing, healthy), errBoom)
}

func TestRunCancelSendsShutdown(t *testing.T) {
	d := New(4, 4)
	started := make(chan struct{})
	first := &fakeCar{id: 0, ch: d.Attach(0), fn: func(ctx context.Context, ch types.CarChannels) error {
		close(started)
		return untilShutdown(ctx, ch)
	}}
	second := &fakeCar{id: 1, ch: d.Attach(1), fn: untilShutdown}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	assert.NoError(t, d.Run(ctx, first, second))
}
