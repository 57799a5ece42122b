package elevio

import (
	"errors"
	"fmt"

	"elevfleet/src/types"
)

// Frame is one 4-byte command or reply. The first byte is the command tag,
// and a reply always echoes the tag of the command it answers.
type Frame [4]byte

const (
	cmdReloadConfig   byte = 0
	cmdMotorDirection byte = 1
	cmdButtonLamp     byte = 2
	cmdFloorIndicator byte = 3
	cmdDoorOpenLamp   byte = 4
	cmdStopLamp       byte = 5
	cmdGetButton      byte = 6
	cmdGetFloor       byte = 7
	cmdGetStop        byte = 8
	cmdGetObstruction byte = 9
)

var (
	// ErrProtocol is returned for replies with a wrong tag or an out-of-range data byte.
	ErrProtocol = errors.New("protocol error")
	// ErrLink is returned when reading from or writing to the connection fails.
	ErrLink = errors.New("link error")
)

func EncodeReloadConfig() Frame {
	return Frame{cmdReloadConfig, 0, 0, 0}
}

// EncodeMotorDirection writes the direction as a two's-complement byte: up is 1, down 255, stop 0.
func EncodeMotorDirection(dir types.MotorDirection) Frame {
	return Frame{cmdMotorDirection, byte(int8(dir)), 0, 0}
}

func DecodeMotorDirection(f Frame) (types.MotorDirection, error) {
	if f[0] != cmdMotorDirection {
		return types.MD_Stop, fmt.Errorf("%w: tag %d is not a motor direction command", ErrProtocol, f[0])
	}
	switch int8(f[1]) {
	case 1:
		return types.MD_Up, nil
	case -1:
		return types.MD_Down, nil
	case 0:
		return types.MD_Stop, nil
	}
	return types.MD_Stop, fmt.Errorf("%w: motor direction byte %d", ErrProtocol, f[1])
}

func EncodeButtonLamp(btn types.ButtonType, floor types.Floor, on bool) Frame {
	return Frame{cmdButtonLamp, byte(btn), byte(floor.Int()), toByte(on)}
}

func EncodeFloorIndicator(floor types.Floor) Frame {
	return Frame{cmdFloorIndicator, byte(floor.Int()), 0, 0}
}

func EncodeDoorOpenLamp(on bool) Frame {
	return Frame{cmdDoorOpenLamp, toByte(on), 0, 0}
}

func EncodeStopLamp(on bool) Frame {
	return Frame{cmdStopLamp, toByte(on), 0, 0}
}

func EncodeGetButton(btn types.ButtonType, floor types.Floor) Frame {
	return Frame{cmdGetButton, byte(btn), byte(floor.Int()), 0}
}

func EncodeGetFloor() Frame {
	return Frame{cmdGetFloor, 0, 0, 0}
}

func EncodeGetStop() Frame {
	return Frame{cmdGetStop, 0, 0, 0}
}

func EncodeGetObstruction() Frame {
	return Frame{cmdGetObstruction, 0, 0, 0}
}

func DecodeButton(reply Frame) (bool, error) {
	return decodeFlag(cmdGetButton, reply)
}

// DecodeFloor returns the floor the car is at. atFloor is false while between floors.
func DecodeFloor(reply Frame, floors types.FloorRange) (floor types.Floor, atFloor bool, err error) {
	sensing, err := decodeFlag(cmdGetFloor, reply)
	if err != nil || !sensing {
		return types.Floor{}, false, err
	}
	floor, err = floors.Floor(int(reply[2]))
	if err != nil {
		return types.Floor{}, false, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	return floor, true, nil
}

func DecodeStop(reply Frame) (bool, error) {
	return decodeFlag(cmdGetStop, reply)
}

func DecodeObstruction(reply Frame) (bool, error) {
	return decodeFlag(cmdGetObstruction, reply)
}

func decodeFlag(tag byte, reply Frame) (bool, error) {
	if reply[0] != tag {
		return false, fmt.Errorf("%w: reply tag %d to command %d", ErrProtocol, reply[0], tag)
	}
	switch reply[1] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("%w: data byte %d to command %d", ErrProtocol, reply[1], tag)
}

func toByte(a bool) byte {
	var b byte = 0
	if a {
		b = 1
	}
	return b
}
