//go:build !darwin
// +build !darwin

package mididarwin

import (
	"errors"

	"github.com/leandrodaf/vjsense/sdk/contracts"
)

// ErrUnavailable is returned by every operation of the CoreMIDI stub.
var ErrUnavailable = errors.New("CoreMIDI is only available on macOS")

// DummyMIDIClient stands in for the CoreMIDI backend on other systems.
type DummyMIDIClient struct {
	logger contracts.Logger
}

// NewMIDIClient returns the stub so the backend can still be named on every OS.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Warn("CoreMIDI backend selected on a non-macOS system")
	return &DummyMIDIClient{
		logger: options.Logger,
	}, nil
}

func (m *DummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	return nil, ErrUnavailable
}

func (m *DummyMIDIClient) SelectDevice(deviceID int) error {
	return ErrUnavailable
}

func (m *DummyMIDIClient) StartCapture(eventChannel chan contracts.MIDI) {
	m.logger.Warn("StartCapture called on CoreMIDI stub")
}

func (m *DummyMIDIClient) Stop() error {
	return nil
}
