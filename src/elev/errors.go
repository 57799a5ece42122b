package elev

import (
	"errors"
	"fmt"

	"elevfleet/src/types"
)

// ErrChannelShutdown is returned when the dispatcher has closed the car's inbound channel.
var ErrChannelShutdown = errors.New("dispatcher channel closed")

// errShutdown ends the loop without an error: a Shutdown message or a cancelled context.
var errShutdown = errors.New("shutdown")

// CarError is returned by a car loop that terminates on a failure. It records where the car was.
type CarError struct {
	ID    int
	Floor types.Floor
	State types.State
	// Critical is set when a safety-relevant hardware operation failed.
	Critical bool
	Err      error
}

func (e *CarError) Error() string {
	kind := "failed"
	if e.Critical {
		kind = "critical failure"
	}
	return fmt.Sprintf("car %d %s at floor %d in state %s: %v", e.ID, kind, e.Floor.Int(), e.State, e.Err)
}

func (e *CarError) Unwrap() error {
	return e.Err
}

// criticalError marks a failure of a motor command or of the floor sensor link.
type criticalError struct {
	err error
}

func (e criticalError) Error() string { return e.err.Error() }
func (e criticalError) Unwrap() error { return e.err }

func critical(format string, args ...any) error {
	return criticalError{err: fmt.Errorf(format, args...)}
}
