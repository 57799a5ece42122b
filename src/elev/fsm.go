// State machine of a single car.
package elev

import (
	"context"

	"elevfleet/src/types"
)

// stopDirection decides whether a car moving in dir stops at floor, and which way it resumes.
// A call in the direction of travel is never skipped. A car with nothing left ahead
// reverses for a call in the opposite direction.
func stopDirection(reqs *Requests, floor types.Floor, dir types.Direction) (types.Direction, bool) {
	if reqs.Pending(types.HallButton(dir), floor) || reqs.Pending(types.BT_Cab, floor) {
		return dir, true
	}
	opposite := dir.Opposite()
	if !reqs.AnyBeyond(floor, dir) && reqs.Pending(types.HallButton(opposite), floor) {
		return opposite, true
	}
	return dir, false
}

// arriveAtFloor stops the car if there is work here, or if it has reached the end of the shaft.
func (c *Car) arriveAtFloor(ctx context.Context, floor types.Floor) error {
	c.floor = floor
	if err := c.hw.SetFloorIndicator(floor); err != nil {
		c.hardwareFault("set floor indicator", err)
	}
	if c.state.Behaviour != types.Moving {
		c.log.Warn("Arrived at floor while not moving", "floor", floor, "state", c.state)
		return nil
	}

	dir := c.state.Dir
	resume, stop := stopDirection(c.requests, floor, dir)
	if !stop && c.floors.IsLast(floor, dir) {
		resume, stop = dir.Opposite(), true
	}
	if !stop {
		c.log.Debug("Passing floor", "floor", floor, "dir", dir)
		return nil
	}

	if err := c.hw.SetMotorDirection(types.MD_Stop); err != nil {
		return critical("stop motor at floor %d: %w", floor.Int(), err)
	}
	c.log.Info("Stopped at floor", "floor", floor, "resume", resume)
	return c.waitAtFloor(ctx, resume)
}

// waitAtFloor opens the door and serves the Cab call and the Hall call in the resume direction.
func (c *Car) waitAtFloor(ctx context.Context, resume types.Direction) error {
	c.state = types.StillState(resume)
	c.doorTimer.Start()
	if c.cfg.LightSettleDelay > 0 {
		c.clock.Sleep(c.cfg.LightSettleDelay)
	}
	if err := c.hw.SetDoorOpenLamp(true); err != nil {
		c.hardwareFault("open door lamp", err)
	}

	c.requests.Clear(types.BT_Cab, c.floor)
	c.setLight(types.BT_Cab, c.floor, false)

	hall := types.HallButton(resume)
	if c.requests.Clear(hall, c.floor) {
		c.setLight(hall, c.floor, false)
		return c.send(ctx, types.NewHallLight(c.id, c.floor, resume, false))
	}
	return nil
}

// timerTimedOut closes the door and keeps going in the same direction if there is work there.
func (c *Car) timerTimedOut() error {
	if c.state.Behaviour != types.Still {
		c.log.Warn("Door timer expired while not standing still", "state", c.state)
		return nil
	}
	obstructed, err := c.hw.GetObstruction()
	if err != nil {
		c.hardwareFault("poll obstruction", err)
		obstructed = true
	}
	if obstructed {
		c.log.Debug("Door obstructed, keeping it open")
		c.doorTimer.Start()
		return nil
	}

	if err := c.hw.SetDoorOpenLamp(false); err != nil {
		c.hardwareFault("close door lamp", err)
	}
	dir := c.state.Dir
	if c.requests.PendingInDirection(c.floor, dir) {
		return c.move(dir)
	}
	c.state = types.IdleState()
	return nil
}

func (c *Car) move(dir types.Direction) error {
	if err := c.hw.SetMotorDirection(dir.Motor()); err != nil {
		return critical("start motor %s from floor %d: %w", dir, c.floor.Int(), err)
	}
	c.state = types.MovingState(dir)
	c.log.Debug("Moving", "dir", dir, "from", c.floor)
	return nil
}

// tryMove looks for work for an idle car. A call at the current floor is served as if the car had just arrived.
func (c *Car) tryMove(ctx context.Context) error {
	if c.state.Behaviour != types.Idle {
		return nil
	}
	if _, _, ok := c.requests.AnyPending(); !ok {
		return nil
	}
	for _, dir := range types.Directions {
		if resume, stop := stopDirection(c.requests, c.floor, dir); stop {
			return c.waitAtFloor(ctx, resume)
		}
	}
	for _, dir := range types.Directions {
		if c.requests.AnyBeyond(c.floor, dir) {
			return c.move(dir)
		}
	}
	return nil
}

func (c *Car) messageReceived(msg types.Message) error {
	switch msg.Type {
	case types.RequestMsg:
		c.requests.Add(types.HallButton(msg.Dir), msg.Floor)
		c.log.Info("Accepted hall call", "floor", msg.Floor, "dir", msg.Dir, "id", msg.ID)
	case types.HallLightMsg:
		c.setLight(types.HallButton(msg.Dir), msg.Floor, msg.On)
	case types.ShutdownMsg:
		return errShutdown
	default:
		c.log.Warn("Unexpected message from dispatcher", "msg", msg)
	}
	return nil
}

// buttonPress keeps Cab calls local. Hall calls go to the dispatcher, which picks the car that serves them.
func (c *Car) buttonPress(ctx context.Context, floor types.Floor, btn types.ButtonType) error {
	dir, isHall := btn.HallDirection()
	if !isHall {
		c.requests.Add(btn, floor)
		c.setLight(btn, floor, true)
		c.log.Debug("Cab call", "floor", floor)
		return nil
	}

	c.setLight(btn, floor, true)
	req := types.NewRequest(c.id, floor, dir)
	c.log.Info("Hall call pressed", "floor", floor, "dir", dir, "id", req.ID)
	if err := c.send(ctx, types.NewHallLight(c.id, floor, dir, true)); err != nil {
		return err
	}
	return c.send(ctx, req)
}

func (c *Car) stopButton(pressed bool) {
	c.stopPressed = pressed
	c.log.Debug("Stop button changed", "pressed", pressed)
	if err := c.hw.SetStopLamp(pressed); err != nil {
		c.hardwareFault("set stop lamp", err)
	}
}

// setLight records the light in the ledger, which debounces button polls, then mirrors it on the lamp.
func (c *Car) setLight(btn types.ButtonType, floor types.Floor, on bool) {
	c.requests.SetLight(btn, floor, on)
	if err := c.hw.SetButtonLamp(btn, floor, on); err != nil {
		c.hardwareFault("set button lamp", err)
	}
}
