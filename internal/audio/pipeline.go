// Package audio turns live capture blocks into magnitude spectra and emits
// them on the "fft" channel.
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/leandrodaf/vjsense/sdk/contracts"
)

// FallbackSampleRate is used when neither the options nor the device report a rate.
const FallbackSampleRate = 44100

// Errors reported when the pipeline cannot start.
var (
	ErrNoInputDevice = errors.New("no input device")
	ErrStartCapture  = errors.New("error starting audio capture")
	ErrStopCapture   = errors.New("error stopping audio capture")
	ErrClosed        = errors.New("audio pipeline closed")
)

// Config tunes the pipeline.
type Config struct {
	TransformSize int
	SampleRate    float64 // zero uses the device default
	Window        string
}

// Pipeline owns the capture device for as long as Run executes.
type Pipeline struct {
	capture     contracts.AudioCapture
	sink        contracts.EventSink
	logger      contracts.Logger
	transformer *Transformer
	sampleRate  float64
	used        atomic.Bool

	frames       atomic.Uint64
	streamErrors atomic.Uint64
}

// NewPipeline builds the transformer up front so Run never allocates it on
// the capture path.
func NewPipeline(capture contracts.AudioCapture, sink contracts.EventSink, logger contracts.Logger, cfg Config) (*Pipeline, error) {
	size := cfg.TransformSize
	if size == 0 {
		size = DefaultTransformSize
	}
	transformer, err := NewTransformer(size, cfg.Window)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		capture:     capture,
		sink:        sink,
		logger:      logger,
		transformer: transformer,
		sampleRate:  cfg.SampleRate,
	}, nil
}

// Run opens the default input device and streams spectra until ctx is done.
// Startup failures are logged, emitted on the "error" channel and returned.
// The backend is stopped whenever Run returns, so Run can only be called once.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.used.CompareAndSwap(false, true) {
		return ErrClosed
	}

	device, err := p.capture.DefaultDevice()
	if err != nil {
		return p.fail(fmt.Errorf("%w: %v", ErrNoInputDevice, err))
	}

	rate := p.sampleRate
	if rate <= 0 {
		rate = device.SampleRate
	}
	if rate <= 0 {
		rate = FallbackSampleRate
	}

	cfg := contracts.CaptureConfig{
		Device:         device,
		SampleRate:     rate,
		FramesPerBlock: p.transformer.Size(),
		Channels:       1,
	}
	if err := p.capture.Start(cfg, p.handleBlock, p.handleStreamError); err != nil {
		return p.fail(fmt.Errorf("%w: %w", ErrStartCapture, err))
	}

	p.logger.Info("audio capture started",
		p.logger.Field().String("device", device.Name),
		p.logger.Field().Float64("sampleRate", rate),
		p.logger.Field().Int("transformSize", p.transformer.Size()))

	<-ctx.Done()

	if err := p.capture.Stop(); err != nil {
		p.logger.Error(ErrStopCapture.Error(), p.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %w", ErrStopCapture, err)
	}
	p.logger.Info("audio capture stopped",
		p.logger.Field().Uint64("frames", p.frames.Load()),
		p.logger.Field().Uint64("streamErrors", p.streamErrors.Load()))
	return nil
}

// Frames reports how many spectra have been produced.
func (p *Pipeline) Frames() uint64 {
	return p.frames.Load()
}

func (p *Pipeline) fail(err error) error {
	p.logger.Error("audio pipeline failed to start", p.logger.Field().Error("error", err))
	_ = p.sink.Emit(contracts.ChannelError, "audio error: "+err.Error())
	if stopErr := p.capture.Stop(); stopErr != nil {
		p.logger.Warn("error releasing audio backend", p.logger.Field().Error("error", stopErr))
	}
	return err
}

// handleBlock runs on the driver thread. Emit failures are ignored so a
// missing consumer can never stall capture.
func (p *Pipeline) handleBlock(samples []float32) {
	frame := p.transformer.Process(samples)
	p.frames.Add(1)
	_ = p.sink.Emit(contracts.ChannelFFT, frame)
}

func (p *Pipeline) handleStreamError(err error) {
	p.streamErrors.Add(1)
	p.logger.Warn("audio stream error", p.logger.Field().Error("error", err))
}
