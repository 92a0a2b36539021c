//go:build !cgo
// +build !cgo

package audioportaudio

import (
	"errors"

	"github.com/leandrodaf/vjsense/sdk/contracts"
)

// ErrUnavailable is returned by every method of a build without cgo.
var ErrUnavailable = errors.New("PortAudio requires a cgo build")

type dummyCapture struct{}

// NewCapture returns a backend that always fails with ErrUnavailable.
func NewCapture(options *contracts.ClientOptions) (contracts.AudioCapture, error) {
	options.Logger.Warn("PortAudio backend selected in a build without cgo")
	return &dummyCapture{}, nil
}

func (d *dummyCapture) DefaultDevice() (contracts.DeviceInfo, error) {
	return contracts.DeviceInfo{}, ErrUnavailable
}

func (d *dummyCapture) ListDevices() ([]contracts.DeviceInfo, error) {
	return nil, ErrUnavailable
}

func (d *dummyCapture) Start(cfg contracts.CaptureConfig, onBlock func([]float32), onError func(error)) error {
	return ErrUnavailable
}

func (d *dummyCapture) Stop() error {
	return nil
}
