// Package elevtest provides an in-memory elevator controller for tests.
package elevtest

import (
	"slices"
	"sync"

	"elevfleet/src/types"
)

const betweenFloors = -1

// Hardware records every command it receives and answers polls from state set by the test.
// It is safe for use by a car loop and a test goroutine at the same time.
type Hardware struct {
	mu     sync.Mutex
	floors types.FloorRange

	floor       int
	arriveAfter int // floor polls answered with "between floors" before reporting floor
	pressed     map[types.ButtonEvent]bool
	obstructed  bool
	stop        bool

	motor     []types.MotorDirection
	door      []bool
	lamps     map[types.ButtonEvent]bool
	indicator int
	stopLamp  bool
	reloads   int

	motorErr error
	lampErr  error
	floorErr  error
	buttonErr map[types.ButtonEvent]error
}

// NewHardware returns a controller whose car is at level, or between floors if level is negative.
func NewHardware(floors types.FloorRange, level int) *Hardware {
	if level < 0 {
		level = betweenFloors
	}
	return &Hardware{
		floors:    floors,
		floor:     level,
		pressed:   make(map[types.ButtonEvent]bool),
		lamps:     make(map[types.ButtonEvent]bool),
		buttonErr: make(map[types.ButtonEvent]error),
		indicator: betweenFloors,
	}
}

// SetFloor moves the car to level. A negative level puts it between floors.
func (h *Hardware) SetFloor(level int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if level < 0 {
		level = betweenFloors
	}
	h.floor = level
	h.arriveAfter = 0
}

// ArriveAfter reports the car between floors for the next polls floor polls, then at level.
func (h *Hardware) ArriveAfter(polls int, level int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.floor = level
	h.arriveAfter = polls
}

// Press registers a press that the next poll of that button reports.
func (h *Hardware) Press(btn types.ButtonType, level int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pressed[types.ButtonEvent{Floor: h.floors.MustFloor(level), Button: btn}] = true
}

func (h *Hardware) SetObstruction(on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.obstructed = on
}

func (h *Hardware) SetStop(pressed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stop = pressed
}

// FailMotor makes motor commands return err. A nil err restores them.
func (h *Hardware) FailMotor(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.motorErr = err
}

// FailLamps makes every lamp and indicator command return err.
func (h *Hardware) FailLamps(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lampErr = err
}

// FailFloor makes floor sensor polls return err.
func (h *Hardware) FailFloor(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.floorErr = err
}

// FailButton makes every poll of one button return err.
func (h *Hardware) FailButton(btn types.ButtonType, level int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buttonErr[types.ButtonEvent{Floor: h.floors.MustFloor(level), Button: btn}] = err
}

// MotorCommands is the history of accepted motor commands.
func (h *Hardware) MotorCommands() []types.MotorDirection {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.motor)
}

// DoorLamp is the history of accepted door lamp commands.
func (h *Hardware) DoorLamp() []bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.door)
}

func (h *Hardware) Lamp(btn types.ButtonType, level int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lamps[types.ButtonEvent{Floor: h.floors.MustFloor(level), Button: btn}]
}

// Indicator is the level shown on the floor indicator, or -1 if it was never set.
func (h *Hardware) Indicator() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.indicator
}

func (h *Hardware) StopLamp() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopLamp
}

func (h *Hardware) Reloads() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reloads
}

func (h *Hardware) ReloadConfig() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reloads++
	return nil
}

func (h *Hardware) SetMotorDirection(dir types.MotorDirection) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.motorErr != nil {
		return h.motorErr
	}
	h.motor = append(h.motor, dir)
	return nil
}

func (h *Hardware) SetButtonLamp(btn types.ButtonType, floor types.Floor, on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lampErr != nil {
		return h.lampErr
	}
	h.lamps[types.ButtonEvent{Floor: floor, Button: btn}] = on
	return nil
}

func (h *Hardware) SetFloorIndicator(floor types.Floor) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lampErr != nil {
		return h.lampErr
	}
	h.indicator = floor.Int()
	return nil
}

func (h *Hardware) SetDoorOpenLamp(on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lampErr != nil {
		return h.lampErr
	}
	h.door = append(h.door, on)
	return nil
}

func (h *Hardware) SetStopLamp(on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lampErr != nil {
		return h.lampErr
	}
	h.stopLamp = on
	return nil
}

// GetButton reports a registered press once.
func (h *Hardware) GetButton(btn types.ButtonType, floor types.Floor) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := types.ButtonEvent{Floor: floor, Button: btn}
	if err := h.buttonErr[key]; err != nil {
		return false, err
	}
	pressed := h.pressed[key]
	delete(h.pressed, key)
	return pressed, nil
}

func (h *Hardware) GetFloor() (types.Floor, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.floorErr != nil {
		return types.Floor{}, false, h.floorErr
	}
	if h.arriveAfter > 0 {
		h.arriveAfter--
		return types.Floor{}, false, nil
	}
	if h.floor == betweenFloors {
		return types.Floor{}, false, nil
	}
	return h.floors.MustFloor(h.floor), true, nil
}

func (h *Hardware) GetStop() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stop, nil
}

func (h *Hardware) GetObstruction() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.obstructed, nil
}
