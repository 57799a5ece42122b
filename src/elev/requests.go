package elev

import "elevfleet/src/types"

const numButtons = 3

// Requests is a car's request ledger: which calls are pending, and which call lights are lit.
// It is owned by the car's control loop.
type Requests struct {
	floors  types.FloorRange
	pending [][numButtons]bool // floor, button
	lightOn [][numButtons]bool
}

func NewRequests(floors types.FloorRange) *Requests {
	return &Requests{
		floors:  floors,
		pending: make([][numButtons]bool, floors.NumFloors()),
		lightOn: make([][numButtons]bool, floors.NumFloors()),
	}
}

func (r *Requests) Add(btn types.ButtonType, floor types.Floor) {
	r.pending[floor.Int()][btn] = true
}

// Clear marks the request serviced and reports whether it was pending.
func (r *Requests) Clear(btn types.ButtonType, floor types.Floor) bool {
	was := r.pending[floor.Int()][btn]
	r.pending[floor.Int()][btn] = false
	return was
}

func (r *Requests) Pending(btn types.ButtonType, floor types.Floor) bool {
	return r.pending[floor.Int()][btn]
}

// PendingInDirection reports a Cab or Hall(dir) request strictly beyond floor in direction dir.
func (r *Requests) PendingInDirection(floor types.Floor, dir types.Direction) bool {
	hall := types.HallButton(dir)
	start, end := r.beyond(floor, dir)
	for level := start; level < end; level++ {
		if r.pending[level][types.BT_Cab] || r.pending[level][hall] {
			return true
		}
	}
	return false
}

// AnyBeyond reports a request of any button strictly beyond floor in direction dir.
func (r *Requests) AnyBeyond(floor types.Floor, dir types.Direction) bool {
	start, end := r.beyond(floor, dir)
	return r.countOrders(start, end) > 0
}

// AnyPending returns the lowest pending request, in ButtonPriority order within a floor.
func (r *Requests) AnyPending() (types.Floor, types.ButtonType, bool) {
	for _, floor := range r.floors.Floors() {
		for _, btn := range types.ButtonPriority {
			if r.pending[floor.Int()][btn] {
				return floor, btn, true
			}
		}
	}
	return types.Floor{}, types.BT_Cab, false
}

// Count is the number of pending requests.
func (r *Requests) Count() int {
	return r.countOrders(0, r.floors.NumFloors())
}

func (r *Requests) SetLight(btn types.ButtonType, floor types.Floor, on bool) {
	r.lightOn[floor.Int()][btn] = on
}

func (r *Requests) LightOn(btn types.ButtonType, floor types.Floor) bool {
	return r.lightOn[floor.Int()][btn]
}

// beyond returns the half-open level range strictly past floor in direction dir.
func (r *Requests) beyond(floor types.Floor, dir types.Direction) (start, end int) {
	if dir == types.Up {
		return floor.Int() + 1, r.floors.NumFloors()
	}
	return 0, floor.Int()
}

func (r *Requests) countOrders(startFloor int, endFloor int) (result int) {
	for floor := startFloor; floor < endFloor; floor++ {
		for btn := range numButtons {
			if r.pending[floor][btn] {
				result++
			}
		}
	}
	return result
}
