//go:build !cgo
// +build !cgo

package midirtmidi

import (
	"errors"

	"github.com/leandrodaf/vjsense/sdk/contracts"
)

// ErrUnavailable is returned by every method of a build without cgo.
var ErrUnavailable = errors.New("rtmidi requires a cgo build")

type dummyMIDIClient struct{}

// NewMIDIClient returns a client that always fails with ErrUnavailable.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Warn("rtmidi backend selected in a build without cgo")
	return &dummyMIDIClient{}, nil
}

func (d *dummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	return nil, ErrUnavailable
}

func (d *dummyMIDIClient) SelectDevice(deviceID int) error {
	return ErrUnavailable
}

func (d *dummyMIDIClient) StartCapture(eventChannel chan contracts.MIDI) {}

func (d *dummyMIDIClient) Stop() error {
	return nil
}
