//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/vjsense/sdk/contracts"
)

// ErrUnavailable is returned by every operation of the winmm stub.
var ErrUnavailable = errors.New("winmm MIDI is only available on Windows")

type dummyMIDIClient struct {
	logger contracts.Logger
}

// NewMIDIClient returns a stub for non-Windows systems.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Warn("winmm backend selected on a non-Windows system")
	return &dummyMIDIClient{
		logger: options.Logger,
	}, nil
}

// ListDevices reports that winmm is unavailable.
func (m *dummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	return nil, ErrUnavailable
}

// SelectDevice reports that winmm is unavailable.
func (m *dummyMIDIClient) SelectDevice(deviceID int) error {
	return ErrUnavailable
}

// StartCapture only logs; no messages will ever arrive.
func (m *dummyMIDIClient) StartCapture(eventChannel chan contracts.MIDI) {
	m.logger.Warn("StartCapture called on winmm stub")
}

// Stop is a no-op.
func (m *dummyMIDIClient) Stop() error {
	return nil
}
