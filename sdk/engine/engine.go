// Package engine runs the audio and MIDI pipelines against a shared layer
// configuration and exposes the command surface used by the front end.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/leandrodaf/vjsense/internal/audio"
	"github.com/leandrodaf/vjsense/internal/config"
	"github.com/leandrodaf/vjsense/internal/events"
	"github.com/leandrodaf/vjsense/internal/midi"
	"github.com/leandrodaf/vjsense/sdk/contracts"
	"go.uber.org/multierr"
)

// Errors returned by Run when it cannot start.
var (
	ErrAlreadyRunning = errors.New("engine already running")
	ErrClosed         = errors.New("engine closed")
)

// Stats summarises pipeline activity.
type Stats struct {
	Frames       uint64 // spectra produced
	MIDIReceived uint64 // raw MIDI messages read from the backend
	MIDIEmitted  uint64 // messages that passed the channel filter
	Dropped      uint64 // deliveries lost to full subscriber buffers
}

// Engine owns the layer store, the event bus and both pipelines.
type Engine struct {
	logger     contracts.Logger
	store      *config.Store
	bus        *events.Bus
	audio      *audio.Pipeline
	midi       *midi.Pipeline
	configPath string
	started    atomic.Bool
	closed     atomic.Bool
}

// New loads the layer configuration from options.ConfigPath and wires the
// given backends into fresh pipelines. options must already carry defaults.
func New(capture contracts.AudioCapture, client contracts.ClientMIDI, options *contracts.ClientOptions) (*Engine, error) {
	bus := events.NewBus()

	audioPipeline, err := audio.NewPipeline(capture, bus, options.Logger, audio.Config{
		TransformSize: options.TransformSize,
		SampleRate:    options.SampleRate,
		Window:        options.Window,
	})
	if err != nil {
		return nil, err
	}

	midiFilter := midi.NewFilter(options.MIDIChannels, options.MIDIEventFilter)
	midiPipeline := midi.NewPipeline(client, bus, options.Logger, midi.Config{
		Port:   options.MIDIPort,
		Buffer: options.EventBuffer,
		Filter: &midiFilter,
	})

	snapshot := config.Load(options.ConfigPath, options.Logger)
	options.Logger.Info("layer configuration loaded",
		options.Logger.Field().String("path", options.ConfigPath),
		options.Logger.Field().Int("layers", len(snapshot.Layers)))

	return &Engine{
		logger:     options.Logger,
		store:      config.NewStore(snapshot, options.Logger),
		bus:        bus,
		audio:      audioPipeline,
		midi:       midiPipeline,
		configPath: options.ConfigPath,
	}, nil
}

// Run starts both pipelines and blocks until ctx is done. A pipeline that
// fails to start reports on the "error" channel and the other keeps
// running. The returned error combines failures to release devices.
//
// Devices are released when Run returns and cannot be reopened: later
// calls return ErrClosed.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		if e.closed.Load() {
			return ErrClosed
		}
		return ErrAlreadyRunning
	}
	defer e.closed.Store(true)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	run := func(name string, fn func(context.Context) error) {
		defer wg.Done()
		err := fn(ctx)
		if err == nil {
			return
		}
		if errors.Is(err, audio.ErrStopCapture) || errors.Is(err, midi.ErrStopCapture) {
			mu.Lock()
			errs = multierr.Append(errs, err)
			mu.Unlock()
			return
		}
		e.logger.Warn("pipeline not running",
			e.logger.Field().String("pipeline", name),
			e.logger.Field().Error("error", err))
	}

	wg.Add(2)
	go run("audio", e.audio.Run)
	go run("midi", e.midi.Run)

	<-ctx.Done()
	wg.Wait()

	stats := e.Stats()
	e.logger.Info("engine stopped",
		e.logger.Field().Uint64("frames", stats.Frames),
		e.logger.Field().Uint64("midiReceived", stats.MIDIReceived),
		e.logger.Field().Uint64("midiEmitted", stats.MIDIEmitted),
		e.logger.Field().Uint64("dropped", stats.Dropped))
	return errs
}

// Subscribe registers a consumer for one event channel. The returned
// function unsubscribes and closes the channel.
func (e *Engine) Subscribe(channel string, buffer int) (<-chan contracts.Event, func()) {
	return e.bus.Subscribe(channel, buffer)
}

// SetLayerOpacity updates one layer's opacity, creating the layer with
// default parameters when it does not exist.
func (e *Engine) SetLayerOpacity(layer string, opacity float32) {
	e.store.SetLayerOpacity(layer, opacity)
}

// SetLayer replaces or inserts a layer.
func (e *Engine) SetLayer(layer string, params contracts.LayerParameters) {
	e.store.SetLayer(layer, params)
}

// GetConfig returns a copy of the current layer configuration.
func (e *Engine) GetConfig() contracts.ConfigSnapshot {
	return e.store.Get()
}

// SaveConfig writes the layer configuration to the engine's config path.
func (e *Engine) SaveConfig() error {
	return e.store.Persist(e.configPath)
}

// ConfigPath reports where SaveConfig writes.
func (e *Engine) ConfigPath() string {
	return e.configPath
}

// ListMidiPorts returns the names of the available MIDI input ports.
func (e *Engine) ListMidiPorts() ([]string, error) {
	return e.midi.ListPorts()
}

// SelectMidiPort switches MIDI input to the port at index.
func (e *Engine) SelectMidiPort(index int) error {
	return e.midi.SelectPort(index)
}

// Stats reports pipeline counters.
func (e *Engine) Stats() Stats {
	received, emitted := e.midi.Stats()
	return Stats{
		Frames:       e.audio.Frames(),
		MIDIReceived: received,
		MIDIEmitted:  emitted,
		Dropped:      e.bus.Dropped(),
	}
}
