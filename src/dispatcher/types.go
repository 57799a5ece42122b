package dispatcher

import (
	"context"

	"elevfleet/src/types"
)

// Runner is a car as seen by the dispatcher: something with an id that runs until it is done.
type Runner interface {
	ID() int
	Run(ctx context.Context) error
}

// ViewEntry is the last ElevatorInfo a car reported.
type ViewEntry struct {
	ID          int         `json:"id"`
	Floor       int         `json:"floor"`
	State       types.State `json:"state"`
	NumRequests int         `json:"numRequests"`
}

// FleetView maps car id to its last reported snapshot.
type FleetView map[int]*ViewEntry

type carEntry struct {
	tx chan types.Message
}

type carExit struct {
	id  int
	err error
}
