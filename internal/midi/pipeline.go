// Package midi filters raw MIDI input down to channel-scoped note events
// and emits them on the "midi" channel.
package midi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/leandrodaf/vjsense/sdk/contracts"
)

// DefaultBuffer is the capacity of the raw message channel between backend and pipeline.
const DefaultBuffer = 100

// Error definitions for MIDI pipeline startup and port switching.
var (
	ErrNoMIDIInput = errors.New("no midi input")
	ErrInvalidPort = errors.New("invalid midi port")
	ErrSelectPort  = errors.New("error selecting midi port")
	ErrStopCapture = errors.New("error stopping midi capture")
	ErrClosed      = errors.New("midi pipeline closed")
)

// Config tunes the pipeline.
type Config struct {
	Port   int // index of the port opened at startup
	Buffer int
	Filter *Filter // nil accepts DefaultChannels; see NewFilter
}

// Pipeline owns the MIDI backend for as long as Run executes. Port listing
// and switching from the command surface go through the pipeline so only
// one goroutine touches the backend at a time.
type Pipeline struct {
	client contracts.ClientMIDI
	sink   contracts.EventSink
	logger contracts.Logger
	filter Filter
	buffer int

	mu      sync.Mutex
	port    int
	running bool
	closed  bool // backend released; it cannot be reopened

	received atomic.Uint64
	emitted  atomic.Uint64
}

// NewPipeline wires a backend to a sink.
func NewPipeline(client contracts.ClientMIDI, sink contracts.EventSink, logger contracts.Logger, cfg Config) *Pipeline {
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	filter := NewFilter(nil, nil)
	if cfg.Filter != nil {
		filter = *cfg.Filter
	}
	return &Pipeline{
		client: client,
		sink:   sink,
		logger: logger,
		filter: filter,
		buffer: buffer,
		port:   cfg.Port,
	}
}

// Run connects to the configured port and forwards accepted messages until
// ctx is done. Startup failures are logged, emitted on the "error" channel
// and returned. The port stays connected for the whole call, and the
// backend is stopped when Run returns, so Run can only be called once.
func (p *Pipeline) Run(ctx context.Context) error {
	raw := make(chan contracts.MIDI, p.buffer)
	if err := p.start(raw); err != nil {
		return p.fail(err)
	}

	for {
		select {
		case <-ctx.Done():
			return p.stop()
		case msg := <-raw:
			p.handle(msg)
		}
	}
}

func (p *Pipeline) start(raw chan contracts.MIDI) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	devices, err := p.client.ListDevices()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoMIDIInput, err)
	}
	if len(devices) == 0 {
		return ErrNoMIDIInput
	}
	if p.port < 0 || p.port >= len(devices) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidPort, p.port, len(devices))
	}
	if err := p.client.SelectDevice(p.port); err != nil {
		return fmt.Errorf("%w: %w", ErrSelectPort, err)
	}

	p.client.StartCapture(raw)
	p.running = true
	p.logger.Info("midi capture started",
		p.logger.Field().Int("port", p.port),
		p.logger.Field().String("portName", devices[p.port].Name),
		p.logger.Field().Uint8("minChannel", p.filter.Channels.Min+1),
		p.logger.Field().Uint8("maxChannel", p.filter.Channels.Max+1))
	return nil
}

func (p *Pipeline) stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.running = false
	p.closed = true
	if err := p.client.Stop(); err != nil {
		p.logger.Error(ErrStopCapture.Error(), p.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %w", ErrStopCapture, err)
	}
	p.logger.Info("midi capture stopped",
		p.logger.Field().Uint64("received", p.received.Load()),
		p.logger.Field().Uint64("emitted", p.emitted.Load()))
	return nil
}

func (p *Pipeline) fail(err error) error {
	p.logger.Error("midi pipeline failed to start", p.logger.Field().Error("error", err))
	_ = p.sink.Emit(contracts.ChannelError, "midi error: "+err.Error())
	if errors.Is(err, ErrClosed) {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if stopErr := p.client.Stop(); stopErr != nil {
		p.logger.Warn("error releasing midi backend", p.logger.Field().Error("error", stopErr))
	}
	return err
}

func (p *Pipeline) handle(msg contracts.MIDI) {
	p.received.Add(1)

	event, ok := p.filter.Apply(msg.Data)
	if !ok {
		return
	}
	p.emitted.Add(1)
	if err := p.sink.Emit(contracts.ChannelMIDI, event); err != nil {
		p.logger.Debug("midi event not delivered",
			p.logger.Field().Uint8("channel", event.Channel),
			p.logger.Field().Uint8("note", event.Note),
			p.logger.Field().Error("error", err))
	}
}

// ListPorts returns the names of the available MIDI input ports.
func (p *Pipeline) ListPorts() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	devices, err := p.client.ListDevices()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Name
	}
	return names, nil
}

// SelectPort switches the running capture to another input port. Before
// Run starts it only changes the port Run will open.
func (p *Pipeline) SelectPort(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	devices, err := p.client.ListDevices()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoMIDIInput, err)
	}
	if index < 0 || index >= len(devices) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidPort, index, len(devices))
	}

	if p.running {
		if err := p.client.SelectDevice(index); err != nil {
			return fmt.Errorf("%w: %w", ErrSelectPort, err)
		}
	}
	p.port = index
	p.logger.Info("midi port selected",
		p.logger.Field().Int("port", index),
		p.logger.Field().String("portName", devices[index].Name),
		p.logger.Field().Bool("live", p.running))
	return nil
}

// Port returns the index of the selected input port.
func (p *Pipeline) Port() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.port
}

// Stats reports raw messages received and events emitted.
func (p *Pipeline) Stats() (received, emitted uint64) {
	return p.received.Load(), p.emitted.Load()
}
