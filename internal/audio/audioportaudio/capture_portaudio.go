//go:build cgo
// +build cgo

// Package audioportaudio captures microphone input through PortAudio.
package audioportaudio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/leandrodaf/vjsense/internal/audio"
	"github.com/leandrodaf/vjsense/sdk/contracts"
)

// Errors reported by the PortAudio backend.
var (
	ErrInitialize    = errors.New("error initialising PortAudio")
	ErrNoInputDevice = errors.New("no PortAudio input device")
	ErrOpenStream    = errors.New("error opening PortAudio stream")
	ErrStartStream   = errors.New("error starting PortAudio stream")
	ErrAlreadyActive = errors.New("capture already started")
	ErrInputOverflow = errors.New("input overflow")
	ErrInputUnderrun = errors.New("input underflow")
)

// Capture reads mono float32 blocks from a PortAudio input stream.
type Capture struct {
	logger contracts.Logger

	mu     sync.Mutex
	stream *portaudio.Stream
}

// NewCapture creates a PortAudio capture backend.
func NewCapture(options *contracts.ClientOptions) (contracts.AudioCapture, error) {
	options.Logger.Info("PortAudio capture backend created",
		options.Logger.Field().String("version", portaudio.VersionText()))
	return &Capture{logger: options.Logger}, nil
}

// DefaultDevice returns the host's default input device.
func (c *Capture) DefaultDevice() (contracts.DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return contracts.DeviceInfo{}, fmt.Errorf("%w: %v", ErrInitialize, err)
	}
	defer portaudio.Terminate()

	dev, err := portaudio.DefaultInputDevice()
	if err != nil || dev == nil {
		return contracts.DeviceInfo{}, fmt.Errorf("%w: %v", ErrNoInputDevice, err)
	}
	if dev.MaxInputChannels < 1 {
		return contracts.DeviceInfo{}, ErrNoInputDevice
	}
	info := deviceInfo(-1, dev)
	info.IsDefault = true
	return info, nil
}

// ListDevices returns every device with at least one input channel.
func (c *Capture) ListDevices() ([]contracts.DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitialize, err)
	}
	defer portaudio.Terminate()

	devs, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	def, _ := portaudio.DefaultInputDevice()

	var devices []contracts.DeviceInfo
	for i, dev := range devs {
		if dev.MaxInputChannels < 1 {
			continue
		}
		info := deviceInfo(i, dev)
		info.IsDefault = def != nil && def.Name == dev.Name
		devices = append(devices, info)
	}
	return devices, nil
}

func deviceInfo(index int, dev *portaudio.DeviceInfo) contracts.DeviceInfo {
	info := contracts.DeviceInfo{
		Index:      index,
		Name:       dev.Name,
		SampleRate: dev.DefaultSampleRate,
		Channels:   dev.MaxInputChannels,
	}
	if dev.HostApi != nil {
		info.EntityName = dev.HostApi.Name
	}
	return info
}

// Start opens an input-only stream on cfg.Device (or the default input when
// the name is unknown) and starts it. PortAudio stays initialised until Stop.
func (c *Capture) Start(cfg contracts.CaptureConfig, onBlock func([]float32), onError func(error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return ErrAlreadyActive
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: %v", ErrInitialize, err)
	}

	dev, err := c.findDevice(cfg.Device.Name)
	if err != nil {
		portaudio.Terminate()
		return err
	}

	channels := cfg.Channels
	if channels < 1 {
		channels = 1
	}
	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = channels
	params.SampleRate = cfg.SampleRate
	params.FramesPerBuffer = cfg.FramesPerBlock

	mono := make([]float32, cfg.FramesPerBlock)
	callback := func(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
		if flags&portaudio.InputOverflow != 0 {
			onError(ErrInputOverflow)
		}
		if flags&portaudio.InputUnderflow != 0 {
			onError(ErrInputUnderrun)
		}
		onBlock(audio.Downmix(in, channels, mono))
	}

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		portaudio.Terminate()
		c.logger.Error(ErrOpenStream.Error(), c.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrOpenStream, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		c.logger.Error(ErrStartStream.Error(), c.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrStartStream, err)
	}

	c.stream = stream
	c.logger.Info("PortAudio stream started",
		c.logger.Field().String("device", dev.Name),
		c.logger.Field().Float64("sampleRate", cfg.SampleRate),
		c.logger.Field().Int("framesPerBuffer", cfg.FramesPerBlock))
	return nil
}

func (c *Capture) findDevice(name string) (*portaudio.DeviceInfo, error) {
	if name != "" {
		devs, err := portaudio.Devices()
		if err == nil {
			for _, dev := range devs {
				if dev.Name == name && dev.MaxInputChannels > 0 {
					return dev, nil
				}
			}
		}
		c.logger.Warn("input device not found; using default", c.logger.Field().String("device", name))
	}
	dev, err := portaudio.DefaultInputDevice()
	if err != nil || dev == nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInputDevice, err)
	}
	return dev, nil
}

// Stop stops and closes the stream and releases PortAudio.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return nil
	}
	var err error
	if stopErr := c.stream.Stop(); stopErr != nil {
		err = stopErr
	}
	if closeErr := c.stream.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	c.stream = nil
	if termErr := portaudio.Terminate(); termErr != nil && err == nil {
		err = termErr
	}
	c.logger.Info("PortAudio stream stopped")
	return err
}
