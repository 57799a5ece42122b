package elev

import (
	"context"
	"errors"

	"elevfleet/lib/driver-go/elevio"
	"elevfleet/src/types"
)

// calibrate brings the car to a sensor-confirmed floor before the loop starts.
// A car between floors is driven down until the floor sensor reports a floor.
func (c *Car) calibrate(ctx context.Context) error {
	if c.cfg.ReloadHardwareConfig {
		if err := c.hw.ReloadConfig(); err != nil {
			return critical("reload hardware config: %w", err)
		}
	}
	c.resetLamps()

	floor, atFloor, err := c.readFloor(ctx)
	if err != nil {
		return err
	}
	if !atFloor {
		c.log.Debug("Calibrate: no floor detected, moving down to first floor sensor")
		if err := c.hw.SetMotorDirection(types.MD_Down); err != nil {
			return critical("start motor for calibration: %w", err)
		}
		c.state = types.MovingState(types.Down)
		if floor, err = c.waitForFloor(ctx); err != nil {
			return err
		}
		if err := c.hw.SetMotorDirection(types.MD_Stop); err != nil {
			return critical("stop motor after calibration: %w", err)
		}
	}

	c.floor = floor
	c.state = types.IdleState()
	if err := c.hw.SetFloorIndicator(floor); err != nil {
		c.hardwareFault("set floor indicator", err)
	}
	c.log.Info("Car calibrated", "floor", floor)
	return nil
}

func (c *Car) waitForFloor(ctx context.Context) (types.Floor, error) {
	for {
		floor, atFloor, err := c.readFloor(ctx)
		if err != nil {
			return types.Floor{}, err
		}
		if atFloor {
			c.log.Debug("Calibrate: floor sensor triggered", "floor", floor)
			return floor, nil
		}
		c.clock.Sleep(c.cfg.PollInterval)
	}
}

// readFloor retries the floor sensor until it gives a well-formed reply. A link error is critical.
func (c *Car) readFloor(ctx context.Context) (types.Floor, bool, error) {
	for {
		if ctx.Err() != nil {
			return types.Floor{}, false, errShutdown
		}
		floor, atFloor, err := c.hw.GetFloor()
		switch {
		case err == nil:
			return floor, atFloor, nil
		case errors.Is(err, elevio.ErrLink):
			return types.Floor{}, false, critical("floor sensor: %w", err)
		}
		c.hardwareFault("poll floor sensor", err)
		c.clock.Sleep(c.cfg.PollInterval)
	}
}

// resetLamps turns off every lamp the car controls, so lit lamps match the empty ledger.
func (c *Car) resetLamps() {
	if err := c.hw.SetStopLamp(false); err != nil {
		c.hardwareFault("reset stop lamp", err)
	}
	if err := c.hw.SetDoorOpenLamp(false); err != nil {
		c.hardwareFault("reset door lamp", err)
	}
	for _, f := range c.floors.Floors() {
		for _, btn := range types.ButtonPriority {
			if !c.floors.ButtonExists(btn, f) {
				continue
			}
			if err := c.hw.SetButtonLamp(btn, f, false); err != nil {
				c.hardwareFault("reset button lamp", err)
			}
		}
	}
}
