package sensor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"go.bug.st/serial"
)

// ErrUnavailable reports that the sensor device does not exist or cannot be
// opened; it is fatal for the session that needed it.
var ErrUnavailable = errors.New("sensor device unavailable")

// ErrPermissionDenied reports that the process lacks access to the sensor
// device; also fatal.
var ErrPermissionDenied = errors.New("sensor device permission denied")

// Porter is the minimal surface the mux needs from a sensor port. The GPS
// rig is read-only from our side.
type Porter interface {
	io.Reader
	io.Closer
}

// DefaultBaudRate is the wire speed of the survey rig's combined NMEA/IMU
// stream.
const DefaultBaudRate = 9600

// OpenPort opens the serial device carrying the sensor stream. Open
// failures are mapped onto the session-fatal error taxonomy so callers can
// surface them without inspecting platform errno values.
func OpenPort(device string, baudRate int) (serial.Port, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("%w: %s: %v", ErrPermissionDenied, device, err)
		default:
			return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, device, err)
		}
	}
	return port, nil
}

// NewSerialMux opens device and wraps it in a StreamMux.
func NewSerialMux(device string, baudRate int) (*StreamMux[serial.Port], error) {
	port, err := OpenPort(device, baudRate)
	if err != nil {
		return nil, err
	}
	return NewStreamMux[serial.Port](port), nil
}
