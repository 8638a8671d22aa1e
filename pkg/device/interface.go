package device

import "errors"

// Device defines the interface for pool energy rigs (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Frames() <-chan Frame
	SetMotor(on bool) error
	ToggleMotor() error
	SetValve(open bool) error
	IsConnected() bool
}

// ErrDebounced is returned when a motor or valve command arrives before the
// rig's debounce interval has elapsed since the last accepted change.
var ErrDebounced = errors.New("command ignored: debounce interval not elapsed")

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
