package types

import (
	"errors"
	"fmt"
)

// MaxFloors is bounded by the single byte the wire protocol uses for a floor.
const MaxFloors = 256

var ErrFloorOutOfRange = errors.New("floor out of range")

// FloorRange holds the number of floors served by the fleet. It is fixed at startup
// and is the only way to construct a Floor.
type FloorRange struct {
	n int
}

func NewFloorRange(numFloors int) (FloorRange, error) {
	if numFloors < 1 || numFloors > MaxFloors {
		return FloorRange{}, fmt.Errorf("number of floors must be in [1, %d], got %d", MaxFloors, numFloors)
	}
	return FloorRange{n: numFloors}, nil
}

func (r FloorRange) NumFloors() int {
	return r.n
}

// Floor returns the floor at the given level, or ErrFloorOutOfRange.
func (r FloorRange) Floor(level int) (Floor, error) {
	if level < 0 || level >= r.n {
		return Floor{}, fmt.Errorf("%w: %d not in [0, %d)", ErrFloorOutOfRange, level, r.n)
	}
	return Floor{level: level}, nil
}

// MustFloor is Floor for levels known to be valid, such as loop indices and test fixtures.
func (r FloorRange) MustFloor(level int) Floor {
	f, err := r.Floor(level)
	if err != nil {
		panic(err)
	}
	return f
}

func (r FloorRange) Ground() Floor {
	return Floor{}
}

func (r FloorRange) Top() Floor {
	return Floor{level: r.n - 1}
}

// Floors lists every floor from the ground up.
func (r FloorRange) Floors() []Floor {
	floors := make([]Floor, r.n)
	for level := range r.n {
		floors[level] = Floor{level: level}
	}
	return floors
}

// IsLast reports whether there is no floor beyond f in direction dir.
func (r FloorRange) IsLast(f Floor, dir Direction) bool {
	switch dir {
	case Up:
		return f.level == r.n-1
	case Down:
		return f.level == 0
	}
	return false
}

// ButtonExists is false for the hall buttons that would leave the building:
// Hall(Up) at the top floor and Hall(Down) at the ground floor.
func (r FloorRange) ButtonExists(btn ButtonType, f Floor) bool {
	switch btn {
	case BT_HallUp:
		return f.level < r.n-1
	case BT_HallDown:
		return f.level > 0
	case BT_Cab:
		return true
	}
	return false
}

// Floor is a level in [0, NumFloors). The zero value is the ground floor.
type Floor struct {
	level int
}

func (f Floor) Int() int {
	return f.level
}

func (f Floor) String() string {
	return fmt.Sprintf("%d", f.level)
}

// Distance is the number of floors between f and other.
func (f Floor) Distance(other Floor) int {
	if f.level > other.level {
		return f.level - other.level
	}
	return other.level - f.level
}

type Direction int

const (
	Up Direction = iota
	Down
)

// Directions is the order in which an idle car looks for work.
var Directions = [2]Direction{Up, Down}

func (d Direction) Opposite() Direction {
	if d == Up {
		return Down
	}
	return Up
}

// Motor is the motor command that drives the car in direction d.
func (d Direction) Motor() MotorDirection {
	if d == Up {
		return MD_Up
	}
	return MD_Down
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return "unknown"
}

type MotorDirection int

const (
	MD_Up   MotorDirection = 1
	MD_Down MotorDirection = -1
	MD_Stop MotorDirection = 0
)

func (md MotorDirection) String() string {
	switch md {
	case MD_Up:
		return "up"
	case MD_Down:
		return "down"
	case MD_Stop:
		return "stop"
	}
	return "unknown"
}

// ButtonType values match the button byte of the wire protocol.
type ButtonType int

const (
	BT_HallUp ButtonType = iota
	BT_HallDown
	BT_Cab
)

// ButtonPriority is the order buttons are inspected within a floor.
var ButtonPriority = [3]ButtonType{BT_Cab, BT_HallUp, BT_HallDown}

// HallButton is the hall button calling a car in direction dir.
func HallButton(dir Direction) ButtonType {
	if dir == Up {
		return BT_HallUp
	}
	return BT_HallDown
}

// HallDirection returns the direction of a hall button. ok is false for BT_Cab.
func (b ButtonType) HallDirection() (dir Direction, ok bool) {
	switch b {
	case BT_HallUp:
		return Up, true
	case BT_HallDown:
		return Down, true
	}
	return Up, false
}

func (b ButtonType) String() string {
	switch b {
	case BT_HallUp:
		return "HallUp"
	case BT_HallDown:
		return "HallDown"
	case BT_Cab:
		return "Cab"
	}
	return "Unknown"
}

type ButtonEvent struct {
	Floor  Floor
	Button ButtonType
}

func (e ButtonEvent) String() string {
	return fmt.Sprintf("%s(%d)", e.Button, e.Floor.Int())
}
