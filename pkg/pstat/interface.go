package pstat

import (
	"errors"

	"github.com/itohio/gopstat/pkg/telemetry"
)

var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
)

// Device defines the interface for potentiostat devices (real or
// mocked). Lines delivers parsed telemetry in arrival order; Send
// writes one ASCII command per call.
type Device interface {
	Connect() error
	Close() error
	Lines() <-chan telemetry.Line
	Send(cmd string) error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
