package dispatcher

import "elevfleet/src/types"

var stateWeight = map[types.ElevBehaviour]int{
	types.Idle:   0,
	types.Moving: 1,
	types.Still:  3,
}

// Cost of car serving a hall call at floor going dir. Idle cars are cheapest, a car still at a stop
// must finish its door cycle first, and distance and load outweigh the direction penalty.
func Cost(car ViewEntry, floor types.Floor, dir types.Direction) int {
	inDirection := car.State.Behaviour == types.Idle || car.State.Dir == dir
	cost := stateWeight[car.State.Behaviour] + abs(car.Floor-floor.Int()) + 2*car.NumRequests
	if !inDirection {
		cost++
	}
	return cost
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
