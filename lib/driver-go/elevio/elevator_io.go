// This file defines the driver for one elevator's hardware controller.
// Every car owns one Driver and one TCP connection; commands are never pipelined.
package elevio

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"elevfleet/src/types"
)

type Driver struct {
	mtx    sync.Mutex
	conn   net.Conn
	floors types.FloorRange
}

// Dial connects to the hardware controller at addr.
func Dial(ctx context.Context, addr string, floors types.FloorRange) (*Driver, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrLink, addr, err)
	}
	return New(conn, floors), nil
}

// New wraps an established connection.
func New(conn net.Conn, floors types.FloorRange) *Driver {
	return &Driver{conn: conn, floors: floors}
}

func (d *Driver) Close() error {
	return d.conn.Close()
}

func (d *Driver) ReloadConfig() error {
	return d.write(EncodeReloadConfig())
}

func (d *Driver) SetMotorDirection(dir types.MotorDirection) error {
	return d.write(EncodeMotorDirection(dir))
}

func (d *Driver) SetButtonLamp(btn types.ButtonType, floor types.Floor, on bool) error {
	return d.write(EncodeButtonLamp(btn, floor, on))
}

func (d *Driver) SetFloorIndicator(floor types.Floor) error {
	return d.write(EncodeFloorIndicator(floor))
}

func (d *Driver) SetDoorOpenLamp(on bool) error {
	return d.write(EncodeDoorOpenLamp(on))
}

func (d *Driver) SetStopLamp(on bool) error {
	return d.write(EncodeStopLamp(on))
}

func (d *Driver) GetButton(btn types.ButtonType, floor types.Floor) (bool, error) {
	reply, err := d.read(EncodeGetButton(btn, floor))
	if err != nil {
		return false, err
	}
	return DecodeButton(reply)
}

// GetFloor returns the floor sensor reading. atFloor is false while between floors.
func (d *Driver) GetFloor() (floor types.Floor, atFloor bool, err error) {
	reply, err := d.read(EncodeGetFloor())
	if err != nil {
		return types.Floor{}, false, err
	}
	return DecodeFloor(reply, d.floors)
}

func (d *Driver) GetStop() (bool, error) {
	reply, err := d.read(EncodeGetStop())
	if err != nil {
		return false, err
	}
	return DecodeStop(reply)
}

func (d *Driver) GetObstruction() (bool, error) {
	reply, err := d.read(EncodeGetObstruction())
	if err != nil {
		return false, err
	}
	return DecodeObstruction(reply)
}

// read writes a command and waits for its 4-byte reply before releasing the connection.
func (d *Driver) read(in Frame) (Frame, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	var out Frame
	if _, err := d.conn.Write(in[:]); err != nil {
		return out, fmt.Errorf("%w: write command %d: %w", ErrLink, in[0], err)
	}
	if _, err := io.ReadFull(d.conn, out[:]); err != nil {
		return out, fmt.Errorf("%w: read reply to command %d: %w", ErrLink, in[0], err)
	}
	return out, nil
}

func (d *Driver) write(in Frame) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if _, err := d.conn.Write(in[:]); err != nil {
		return fmt.Errorf("%w: write command %d: %w", ErrLink, in[0], err)
	}
	return nil
}
