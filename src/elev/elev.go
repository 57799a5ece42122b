package elev

import (
	"context"
	"errors"
	"log/slog"

	"k8s.io/utils/clock"

	"elevfleet/lib/driver-go/elevio"
	"elevfleet/src/config"
	"elevfleet/src/metrics"
	"elevfleet/src/timer"
	"elevfleet/src/types"
)

// Car drives one elevator: it owns its hardware link, its request ledger and its state.
// All of it is touched only from the goroutine running Run.
type Car struct {
	id     int
	floors types.FloorRange
	hw     Hardware
	clock  clock.Clock
	cfg    config.Config
	ch     types.CarChannels
	log    *slog.Logger

	floor       types.Floor
	state       types.State
	requests    *Requests
	doorTimer   *timer.DoorTimer
	stopPressed bool
}

func NewCar(id int, floors types.FloorRange, hw Hardware, ch types.CarChannels, clk clock.Clock, cfg config.Config) *Car {
	return &Car{
		id:        id,
		floors:    floors,
		hw:        hw,
		clock:     clk,
		cfg:       cfg,
		ch:        ch,
		log:       slog.With("car", id),
		state:     types.IdleState(),
		requests:  NewRequests(floors),
		doorTimer: timer.New(clk, cfg.DoorOpenDuration),
	}
}

func (c *Car) ID() int {
	return c.id
}

// Run calibrates the car and then runs its control loop until a Shutdown message, a cancelled
// context, or a failure. A failure is returned as a *CarError.
func (c *Car) Run(ctx context.Context) error {
	err := c.calibrate(ctx)
	for err == nil {
		c.publishInfo()

		var ev Event
		var ok bool
		if ev, ok, err = c.waitForEvent(ctx); err != nil || !ok {
			continue
		}
		c.log.Debug("Handling event", "event", ev, "state", c.state, "floor", c.floor)
		if err = c.handleEvent(ctx, ev); err != nil {
			break
		}
		if c.state.Behaviour == types.Idle {
			err = c.tryMove(ctx)
		}
	}
	return c.exit(err)
}

func (c *Car) exit(err error) error {
	if errors.Is(err, errShutdown) {
		c.log.Info("Car shutting down", "floor", c.floor, "state", c.state)
		c.haltMotor()
		metrics.RecordCarExit(c.id, metrics.ExitGraceful)
		return nil
	}

	var crit criticalError
	carErr := &CarError{
		ID:       c.id,
		Floor:    c.floor,
		State:    c.state,
		Critical: errors.As(err, &crit),
		Err:      err,
	}
	c.log.Error("Car loop terminated", "error", err, "floor", c.floor, "state", c.state)
	c.haltMotor()
	metrics.RecordCarExit(c.id, metrics.ExitError)
	return carErr
}

// haltMotor is a best effort stop for a car that leaves its loop while moving.
func (c *Car) haltMotor() {
	if c.state.Behaviour != types.Moving {
		return
	}
	if err := c.hw.SetMotorDirection(types.MD_Stop); err != nil {
		c.log.Warn("Failed to stop motor on exit", "error", err)
	}
}

// publishInfo never blocks. A full dispatcher inbox drops the snapshot; the next pass sends a fresh one.
func (c *Car) publishInfo() {
	msg := types.NewElevInfo(c.id, c.floor, c.state, c.requests.Count())
	select {
	case c.ch.ToDispatcher <- msg:
	default:
	}
}

// send blocks until the dispatcher accepts msg or ctx ends.
func (c *Car) send(ctx context.Context, msg types.Message) error {
	select {
	case c.ch.ToDispatcher <- msg:
		return nil
	case <-ctx.Done():
		return errShutdown
	}
}

// waitForEvent runs poll passes until one yields an event. Within a pass the order is
// floor arrival, door timer, dispatcher message, button press, stop button.
func (c *Car) waitForEvent(ctx context.Context) (Event, bool, error) {
	for {
		if ctx.Err() != nil {
			return Event{}, false, errShutdown
		}
		ev, ok, err := c.pollOnce()
		if err != nil || ok {
			return ev, ok, err
		}
		c.clock.Sleep(c.cfg.PollInterval)
	}
}

func (c *Car) pollOnce() (Event, bool, error) {
	floor, atFloor, err := c.hw.GetFloor()
	switch {
	case errors.Is(err, elevio.ErrLink):
		return Event{}, false, critical("floor sensor: %w", err)
	case err != nil:
		c.hardwareFault("poll floor sensor", err)
		return Event{}, false, nil
	case atFloor && floor != c.floor:
		return Event{Type: ArriveAtFloor, Floor: floor}, true, nil
	}

	if c.doorTimer.TimedOut() {
		return Event{Type: TimerTimedOut}, true, nil
	}

	select {
	case msg, ok := <-c.ch.FromDispatcher:
		if !ok {
			return Event{}, false, ErrChannelShutdown
		}
		return Event{Type: MessageReceived, Msg: msg}, true, nil
	default:
	}

	for _, f := range c.floors.Floors() {
		for _, btn := range types.ButtonPriority {
			if !c.floors.ButtonExists(btn, f) || c.requests.LightOn(btn, f) {
				continue
			}
			pressed, err := c.hw.GetButton(btn, f)
			if err != nil {
				c.hardwareFault("poll button", err)
				continue
			}
			if pressed {
				return Event{Type: ButtonPress, Floor: f, Button: btn}, true, nil
			}
		}
	}

	stop, err := c.hw.GetStop()
	if err != nil {
		c.hardwareFault("poll stop button", err)
		return Event{}, false, nil
	}
	if stop != c.stopPressed {
		return Event{Type: StopButton, Pressed: stop}, true, nil
	}
	return Event{}, false, nil
}

func (c *Car) handleEvent(ctx context.Context, ev Event) error {
	switch ev.Type {
	case ArriveAtFloor:
		return c.arriveAtFloor(ctx, ev.Floor)
	case TimerTimedOut:
		return c.timerTimedOut()
	case MessageReceived:
		return c.messageReceived(ev.Msg)
	case ButtonPress:
		return c.buttonPress(ctx, ev.Floor, ev.Button)
	case StopButton:
		c.stopButton(ev.Pressed)
	}
	return nil
}

// hardwareFault logs a non-critical hardware error. The next poll pass retries.
func (c *Car) hardwareFault(op string, err error) {
	kind := "protocol"
	if errors.Is(err, elevio.ErrLink) {
		kind = "link"
	}
	c.log.Warn("Hardware error", "op", op, "kind", kind, "error", err)
	metrics.RecordHardwareError(c.id, kind)
}
