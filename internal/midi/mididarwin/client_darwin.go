//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/vjsense/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrNoMIDIDevices       = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice   = errors.New("invalid MIDI device")
	ErrMIDIConnectionError = errors.New("error connecting to MIDI device")
	ErrCreateInputPort     = errors.New("error creating input port")
	ErrClosed              = errors.New("CoreMIDI client stopped")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// ClientMid reads raw MIDI from a CoreMIDI source.
//
// The port connection is kept for as long as the client is capturing;
// dropping it silently stops delivery, so it is only released by
// SelectDevice (when switching sources) or Stop.
type ClientMid struct {
	logger       contracts.Logger
	eventChannel atomic.Value           // chan contracts.MIDI read by the packet callback.
	client       coremidi.Client        // CoreMIDI client instance for MIDI operations.
	inputPort    *coremidi.InputPort    // Input port, created once on first SelectDevice.
	portConn     internalPortConnection // Connection to the selected source.
	mu           sync.Mutex             // Guards port state.
	capturing    bool
	closed       bool
	wg           sync.WaitGroup // Tracks callbacks still delivering when Stop runs.
	stopOnce     sync.Once
}

// NewMIDIClient creates the CoreMIDI client named in the options.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("CoreMIDI client created",
		options.Logger.Field().String("clientName", options.CoreMIDIConfig.ClientName))

	return &ClientMid{
		logger: options.Logger,
		client: client,
	}, nil
}

// ListDevices returns every CoreMIDI source.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	if len(sources) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		sourceEntity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			Index:        i,
			Name:         source.Name(),
			EntityName:   sourceEntity.Name(),
			Manufacturer: sourceEntity.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice connects to the source at deviceID, disconnecting the
// previous one. A capture already in progress continues on the new source.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if deviceID < 0 || deviceID >= len(sources) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}

	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}

	source := sources[deviceID]
	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", source.Name()))

	if m.inputPort == nil {
		port, err := coremidi.NewInputPort(m.client, "vjsense input", m.handleMIDIMessage)
		if err != nil {
			m.logger.Error(ErrCreateInputPort.Error(), m.logger.Field().Error("error", err))
			return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
		}
		m.inputPort = &port
	}

	conn, err := m.inputPort.Connect(source)
	if err != nil {
		m.logger.Error(ErrMIDIConnectionError.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}
	m.portConn = conn

	m.logger.Info("MIDI device successfully connected")
	return nil
}

// handleMIDIMessage forwards each packet without blocking. CoreMIDI reuses
// the packet buffer, so the bytes are copied before they leave the callback.
func (m *ClientMid) handleMIDIMessage(source coremidi.Source, packet coremidi.Packet) {
	m.wg.Add(1)
	defer m.wg.Done()

	eventChannel, _ := m.eventChannel.Load().(chan contracts.MIDI)
	if eventChannel == nil {
		return
	}

	data := make([]byte, len(packet.Data))
	copy(data, packet.Data)
	event := contracts.MIDI{
		Timestamp: uint64(time.Now().UTC().UnixNano()),
		Data:      data,
	}

	select {
	case eventChannel <- event:
	default:
		m.logger.Warn("Event buffer full; dropping MIDI event")
	}
}

// StartCapture stores the channel the packet callback writes to.
func (m *ClientMid) StartCapture(eventChannel chan contracts.MIDI) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if eventChannel == nil {
		m.logger.Error("StartCapture called with nil eventChannel")
		return
	}
	if m.closed {
		m.logger.Error(ErrClosed.Error())
		return
	}
	if m.capturing {
		m.logger.Warn("Capture already started; replacing event channel")
	}

	m.logger.Info("Starting MIDI event capture")
	m.eventChannel.Store(eventChannel)
	m.capturing = true
}

// Stop disconnects the source and waits for in-flight callbacks. Only the
// first call has an effect; the client cannot select or capture afterwards.
func (m *ClientMid) Stop() error {
	m.stopOnce.Do(func() {
		m.logger.Info("Stopping MIDI capture")
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.portConn != nil {
			m.portConn.Disconnect()
			m.portConn = nil
		}

		// Callbacks that already loaded the old channel still finish their
		// non-blocking send; new ones see a nil channel.
		m.eventChannel.Store((chan contracts.MIDI)(nil))
		m.capturing = false
		m.closed = true
		m.wg.Wait()
		m.logger.Info("MIDI capture stopped")
	})
	return nil
}
