package types

import (
	"fmt"

	"github.com/google/uuid"
)

type MsgType int

const (
	RequestMsg   MsgType = iota // new hall call, car -> dispatcher -> assigned car
	HallLightMsg                // hall light change, car -> dispatcher -> every car
	ElevInfoMsg                 // car snapshot, car -> dispatcher
	ShutdownMsg                 // dispatcher -> car
)

func (t MsgType) String() string {
	switch t {
	case RequestMsg:
		return "Request"
	case HallLightMsg:
		return "HallButtonLight"
	case ElevInfoMsg:
		return "ElevatorInfo"
	case ShutdownMsg:
		return "Shutdown"
	}
	return "Unknown"
}

// Message is passed between cars and the dispatcher. Which fields are set depends on Type.
type Message struct {
	Type     MsgType
	SenderID int
	// ID correlates a hall call from the press to the car that accepts it.
	ID          uuid.UUID
	Floor       Floor
	Dir         Direction
	On          bool
	State       State
	NumRequests int
}

func NewRequest(senderID int, floor Floor, dir Direction) Message {
	return Message{
		Type:     RequestMsg,
		SenderID: senderID,
		ID:       uuid.New(),
		Floor:    floor,
		Dir:      dir,
	}
}

func NewHallLight(senderID int, floor Floor, dir Direction, on bool) Message {
	return Message{
		Type:     HallLightMsg,
		SenderID: senderID,
		Floor:    floor,
		Dir:      dir,
		On:       on,
	}
}

func NewElevInfo(carID int, floor Floor, state State, numRequests int) Message {
	return Message{
		Type:        ElevInfoMsg,
		SenderID:    carID,
		Floor:       floor,
		State:       state,
		NumRequests: numRequests,
	}
}

func NewShutdown() Message {
	return Message{Type: ShutdownMsg}
}

func (m Message) String() string {
	switch m.Type {
	case RequestMsg:
		return fmt.Sprintf("Request{floor: %d, dir: %s, id: %s}", m.Floor.Int(), m.Dir, m.ID)
	case HallLightMsg:
		return fmt.Sprintf("HallButtonLight{floor: %d, dir: %s, on: %t}", m.Floor.Int(), m.Dir, m.On)
	case ElevInfoMsg:
		return fmt.Sprintf("ElevatorInfo{car: %d, floor: %d, state: %s, requests: %d}",
			m.SenderID, m.Floor.Int(), m.State, m.NumRequests)
	}
	return m.Type.String()
}

// CarChannels are a car's ends of its two dispatcher channels.
type CarChannels struct {
	ToDispatcher   chan<- Message
	FromDispatcher <-chan Message
}
