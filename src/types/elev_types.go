package types

import "fmt"

type ElevBehaviour int

const (
	Idle ElevBehaviour = iota
	Moving
	Still
)

func (b ElevBehaviour) String() string {
	switch b {
	case Idle:
		return "Idle"
	case Moving:
		return "Moving"
	case Still:
		return "Still"
	}
	return "Unknown"
}

// State is the car state machine state. Dir is meaningful only for Moving and Still:
// the direction of travel, or the direction the car resumes in after the door closes.
type State struct {
	Behaviour ElevBehaviour
	Dir       Direction
}

func IdleState() State {
	return State{Behaviour: Idle}
}

func MovingState(dir Direction) State {
	return State{Behaviour: Moving, Dir: dir}
}

func StillState(dir Direction) State {
	return State{Behaviour: Still, Dir: dir}
}

func (s State) String() string {
	if s.Behaviour == Idle {
		return s.Behaviour.String()
	}
	return fmt.Sprintf("%s(%s)", s.Behaviour, s.Dir)
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
