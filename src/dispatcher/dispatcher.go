package dispatcher

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/tiendc/go-deepcopy"
	"golang.org/x/sync/errgroup"

	"elevfleet/src/metrics"
	"elevfleet/src/types"
)

// ErrEmptyFleet is returned by Run when there are no cars to dispatch to.
var ErrEmptyFleet = errors.New("fleet has no cars")

// Dispatcher assigns hall calls to cars and fans out hall light changes. It owns one channel to
// each car and the fleet view; cars share a single channel to it.
type Dispatcher struct {
	inbox        chan types.Message
	carInboxSize int
	log          *slog.Logger

	// Owned by the loop once Run has started.
	cars    map[int]*carEntry
	view    FleetView
	backlog []types.Message // hall calls waiting for room in a car inbox

	mu       sync.RWMutex
	snapshot FleetView
}

func New(inboxSize int, carInboxSize int) *Dispatcher {
	return &Dispatcher{
		inbox:        make(chan types.Message, inboxSize),
		carInboxSize: carInboxSize,
		log:          slog.With("component", "dispatcher"),
		cars:         make(map[int]*carEntry),
		view:         make(FleetView),
		snapshot:     make(FleetView),
	}
}

// Attach registers car id and returns the car's ends of its channels. It must be called before Run.
func (d *Dispatcher) Attach(id int) types.CarChannels {
	tx := make(chan types.Message, d.carInboxSize)
	d.cars[id] = &carEntry{tx: tx}
	d.view[id] = &ViewEntry{ID: id, State: types.IdleState()}
	return types.CarChannels{ToDispatcher: d.inbox, FromDispatcher: tx}
}

// Run starts every car and dispatches until all of them have exited. When ctx is cancelled, or a car
// fails, the remaining cars are sent Shutdown. The first car failure is returned.
func (d *Dispatcher) Run(ctx context.Context, cars ...Runner) error {
	if len(cars) == 0 {
		return ErrEmptyFleet
	}
	if len(cars) != len(d.cars) {
		return fmt.Errorf("%d cars attached but %d to run", len(d.cars), len(cars))
	}
	for _, car := range cars {
		if _, ok := d.cars[car.ID()]; !ok {
			return fmt.Errorf("car %d was not attached", car.ID())
		}
	}
	d.publishSnapshot()

	g, gctx := errgroup.WithContext(ctx)
	exits := make(chan carExit, len(cars))
	for _, car := range cars {
		g.Go(func() error {
			err := car.Run(gctx)
			exits <- carExit{id: car.ID(), err: err}
			return err
		})
	}
	g.Go(func() error {
		return d.loop(gctx, exits)
	})
	return g.Wait()
}

func (d *Dispatcher) loop(ctx context.Context, exits <-chan carExit) error {
	d.log.Info("Dispatcher started", "cars", len(d.cars))
	done := ctx.Done()
	for len(d.cars) > 0 {
		if len(d.backlog) > 0 {
			d.retryBacklog()
		}
		select {
		case msg := <-d.inbox:
			d.handleMessage(msg)
		case exit := <-exits:
			d.removeCar(exit)
		case <-done:
			d.log.Info("Shutting down fleet")
			d.broadcast(types.NewShutdown())
			done = nil
		}
	}
	d.log.Info("Fleet empty, dispatcher exiting")
	return nil
}

func (d *Dispatcher) handleMessage(msg types.Message) {
	switch msg.Type {
	case types.RequestMsg:
		if len(d.cars) == 0 {
			return
		}
		if !d.assign(msg) {
			d.log.Warn("Every car inbox full, holding hall call", "floor", msg.Floor, "dir", msg.Dir, "id", msg.ID)
			d.backlog = append(d.backlog, msg)
		}
	case types.HallLightMsg:
		d.broadcast(msg)
	case types.ElevInfoMsg:
		d.updateView(msg)
	default:
		d.log.Warn("Unexpected message from car", "msg", msg, "from", msg.SenderID)
	}
}

// assign delivers a hall call to the cheapest car with room in its inbox. It reports false when
// every inbox is full.
func (d *Dispatcher) assign(msg types.Message) bool {
	for _, id := range d.rankCars(msg.Floor, msg.Dir) {
		if !d.trySend(id, msg) {
			d.log.Debug("Car inbox full, trying next car", "car", id, "id", msg.ID)
			continue
		}
		d.log.Info("Assigned hall call",
			"car", id,
			"floor", msg.Floor,
			"dir", msg.Dir,
			"id", msg.ID,
			"pressedAt", msg.SenderID)
		metrics.RecordHallCallAssigned(id)
		return true
	}
	return false
}

// retryBacklog assigns the hall calls that found every inbox full. Calls that still fit nowhere stay held.
func (d *Dispatcher) retryBacklog() {
	held := d.backlog
	d.backlog = nil
	for _, msg := range held {
		if !d.assign(msg) {
			d.backlog = append(d.backlog, msg)
		}
	}
}

// rankCars orders the cars by cost. Ties go to the lowest id.
func (d *Dispatcher) rankCars(floor types.Floor, dir types.Direction) []int {
	ids := slices.Sorted(maps.Keys(d.cars))
	slices.SortStableFunc(ids, func(a, b int) int {
		return cmp.Compare(Cost(*d.view[a], floor, dir), Cost(*d.view[b], floor, dir))
	})
	return ids
}

func (d *Dispatcher) broadcast(msg types.Message) {
	for _, id := range slices.Sorted(maps.Keys(d.cars)) {
		if !d.trySend(id, msg) {
			d.log.Warn("Car inbox full, dropping message", "car", id, "msg", msg)
		}
	}
}

// trySend never blocks the loop.
func (d *Dispatcher) trySend(id int, msg types.Message) bool {
	select {
	case d.cars[id].tx <- msg:
		return true
	default:
		return false
	}
}

func (d *Dispatcher) updateView(msg types.Message) {
	entry, ok := d.view[msg.SenderID]
	if !ok {
		return
	}
	*entry = ViewEntry{
		ID:          msg.SenderID,
		Floor:       msg.Floor.Int(),
		State:       msg.State,
		NumRequests: msg.NumRequests,
	}
	metrics.RecordCarInfo(msg.SenderID, entry.Floor, entry.NumRequests)
	d.publishSnapshot()
}

func (d *Dispatcher) removeCar(exit carExit) {
	if exit.err != nil {
		d.log.Error("Car failed", "car", exit.id, "error", exit.err)
	} else {
		d.log.Info("Car exited", "car", exit.id)
	}
	if entry, ok := d.cars[exit.id]; ok {
		close(entry.tx)
	}
	delete(d.cars, exit.id)
	delete(d.view, exit.id)
	d.publishSnapshot()
}

func (d *Dispatcher) publishSnapshot() {
	var snapshot FleetView
	if err := deepcopy.Copy(&snapshot, d.view); err != nil {
		d.log.Error("Failed to copy fleet view", "error", err)
		return
	}
	d.mu.Lock()
	d.snapshot = snapshot
	d.mu.Unlock()
}

// Snapshot returns the fleet view as of the last ElevatorInfo. It must not be modified.
func (d *Dispatcher) Snapshot() FleetView {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot
}
