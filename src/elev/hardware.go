package elev

import (
	"elevfleet/lib/driver-go/elevio"
	"elevfleet/src/types"
)

// Hardware is one car's link to its controller. Calls are strictly sequential: the car loop is the only caller.
type Hardware interface {
	ReloadConfig() error
	SetMotorDirection(dir types.MotorDirection) error
	SetButtonLamp(btn types.ButtonType, floor types.Floor, on bool) error
	SetFloorIndicator(floor types.Floor) error
	SetDoorOpenLamp(on bool) error
	SetStopLamp(on bool) error

	GetButton(btn types.ButtonType, floor types.Floor) (bool, error)
	GetFloor() (floor types.Floor, atFloor bool, err error)
	GetStop() (bool, error)
	GetObstruction() (bool, error)
}

var _ Hardware = (*elevio.Driver)(nil)
