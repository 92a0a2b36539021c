//go:build cgo
// +build cgo

// Package audiominiaudio captures microphone input through miniaudio.
package audiominiaudio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/leandrodaf/vjsense/internal/audio"
	"github.com/leandrodaf/vjsense/sdk/contracts"
)

// Errors reported by the miniaudio backend.
var (
	ErrInitContext   = errors.New("error initialising miniaudio context")
	ErrNoInputDevice = errors.New("no miniaudio capture device")
	ErrInitDevice    = errors.New("error initialising miniaudio device")
	ErrStartDevice   = errors.New("error starting miniaudio device")
	ErrAlreadyActive = errors.New("capture already started")
	ErrDeviceStopped = errors.New("capture device stopped unexpectedly")
	ErrClosed        = errors.New("miniaudio backend closed")
)

// Capture reads float32 blocks from a miniaudio capture device.
type Capture struct {
	logger contracts.Logger

	mu       sync.Mutex
	ctx      *malgo.AllocatedContext
	device   *malgo.Device
	deviceID malgo.DeviceID
	stopping atomic.Bool
}

// NewCapture initialises a miniaudio context with the platform's default backends.
func NewCapture(options *contracts.ClientOptions) (contracts.AudioCapture, error) {
	logger := options.Logger
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("miniaudio", logger.Field().String("message", message))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitContext, err)
	}
	logger.Info("miniaudio capture backend created")
	return &Capture{logger: logger, ctx: ctx}, nil
}

// DefaultDevice returns the capture device miniaudio marks as default, or
// the first one when none is marked.
func (c *Capture) DefaultDevice() (contracts.DeviceInfo, error) {
	devices, err := c.ListDevices()
	if err != nil {
		return contracts.DeviceInfo{}, err
	}
	for _, d := range devices {
		if d.IsDefault {
			return d, nil
		}
	}
	return devices[0], nil
}

// ListDevices returns every capture device.
func (c *Capture) ListDevices() ([]contracts.DeviceInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx == nil {
		return nil, ErrClosed
	}
	infos, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInputDevice, err)
	}
	if len(infos) == 0 {
		return nil, ErrNoInputDevice
	}

	devices := make([]contracts.DeviceInfo, len(infos))
	for i := range infos {
		devices[i] = contracts.DeviceInfo{
			Index:     i,
			Name:      infos[i].Name(),
			IsDefault: infos[i].IsDefault != 0,
		}
	}
	return devices, nil
}

// Start opens the capture device named in cfg (the system default when the
// name is empty or unknown) and starts it.
func (c *Capture) Start(cfg contracts.CaptureConfig, onBlock func([]float32), onError func(error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx == nil {
		return ErrClosed
	}
	if c.device != nil {
		return ErrAlreadyActive
	}

	channels := cfg.Channels
	if channels < 1 {
		channels = 1
	}
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.FramesPerBlock)
	if c.lookupDevice(cfg.Device.Name) {
		deviceConfig.Capture.DeviceID = c.deviceID.Pointer()
	}

	interleaved := make([]float32, cfg.FramesPerBlock*channels)
	mono := make([]float32, cfg.FramesPerBlock)
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			interleaved = audio.DecodeFloat32LE(input, int(frameCount)*channels, interleaved)
			onBlock(audio.Downmix(interleaved, channels, mono))
		},
		Stop: func() {
			if !c.stopping.Load() {
				onError(ErrDeviceStopped)
			}
		},
	}

	device, err := malgo.InitDevice(c.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		c.logger.Error(ErrInitDevice.Error(), c.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrInitDevice, err)
	}
	c.stopping.Store(false)
	if err := device.Start(); err != nil {
		device.Uninit()
		c.logger.Error(ErrStartDevice.Error(), c.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrStartDevice, err)
	}

	c.device = device
	c.logger.Info("miniaudio device started",
		c.logger.Field().String("device", cfg.Device.Name),
		c.logger.Field().Uint64("sampleRate", uint64(device.SampleRate())),
		c.logger.Field().Int("periodFrames", cfg.FramesPerBlock))
	return nil
}

// lookupDevice stores the ID of the named capture device.
func (c *Capture) lookupDevice(name string) bool {
	if name == "" {
		return false
	}
	infos, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return false
	}
	for i := range infos {
		if infos[i].Name() == name {
			c.deviceID = infos[i].ID
			return true
		}
	}
	c.logger.Warn("input device not found; using default", c.logger.Field().String("device", name))
	return false
}

// Stop stops the device and releases the context. The backend cannot be
// restarted afterwards.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx == nil {
		return nil
	}
	var err error
	if c.device != nil {
		c.stopping.Store(true)
		err = c.device.Stop()
		c.device.Uninit()
		c.device = nil
	}
	if uninitErr := c.ctx.Uninit(); uninitErr != nil && err == nil {
		err = uninitErr
	}
	c.ctx.Free()
	c.ctx = nil
	c.logger.Info("miniaudio device stopped")
	return err
}
