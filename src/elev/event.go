package elev

import (
	"fmt"

	"elevfleet/src/types"
)

type EventType int

const (
	ArriveAtFloor EventType = iota
	TimerTimedOut
	MessageReceived
	ButtonPress
	StopButton
)

func (t EventType) String() string {
	switch t {
	case ArriveAtFloor:
		return "ArriveAtFloor"
	case TimerTimedOut:
		return "TimerTimedOut"
	case MessageReceived:
		return "MessageReceived"
	case ButtonPress:
		return "ButtonPress"
	case StopButton:
		return "StopButton"
	}
	return "Unknown"
}

// Event is one thing the control loop detected in a poll pass. Which fields are set depends on Type.
type Event struct {
	Type    EventType
	Floor   types.Floor
	Button  types.ButtonType
	Msg     types.Message
	Pressed bool
}

func (e Event) String() string {
	switch e.Type {
	case ArriveAtFloor:
		return fmt.Sprintf("ArriveAtFloor(%d)", e.Floor.Int())
	case MessageReceived:
		return fmt.Sprintf("MessageReceived(%s)", e.Msg)
	case ButtonPress:
		return fmt.Sprintf("ButtonPress(%s)", types.ButtonEvent{Floor: e.Floor, Button: e.Button})
	case StopButton:
		return fmt.Sprintf("StopButton(%t)", e.Pressed)
	}
	return e.Type.String()
}
