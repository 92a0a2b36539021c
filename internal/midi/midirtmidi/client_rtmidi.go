//go:build cgo
// +build cgo

package midirtmidi

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/vjsense/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Error definitions for the rtmidi backend.
var (
	ErrDriver            = errors.New("error initialising rtmidi driver")
	ErrNoMIDIDevices     = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice = errors.New("invalid MIDI device")
	ErrOpenPort          = errors.New("error opening MIDI port")
	ErrListen            = errors.New("error listening to MIDI port")
	ErrNoDeviceChosen    = errors.New("no MIDI device selected")
	ErrClosed            = errors.New("rtmidi client closed")
)

// ClientMid reads raw MIDI through rtmidi (ALSA on Linux).
type ClientMid struct {
	logger       contracts.Logger
	drv          *rtmididrv.Driver
	eventChannel atomic.Value // chan contracts.MIDI

	mu        sync.Mutex
	inPort    drivers.In
	stopFn    func()
	capturing bool
	closed    bool
}

// NewMIDIClient initialises the rtmidi driver.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDriver, err)
	}
	options.Logger.Info("rtmidi client created")
	return &ClientMid{logger: options.Logger, drv: drv}, nil
}

// ListDevices returns the rtmidi input ports.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	ins, err := m.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	if len(ins) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(ins))
	for i, in := range ins {
		devices[i] = contracts.DeviceInfo{
			Index:      i,
			Name:       in.String(),
			EntityName: in.String(),
		}
	}
	return devices, nil
}

// SelectDevice opens the input at deviceID and closes the previous one.
// A capture in progress is moved to the new port.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	ins, err := m.drv.Ins()
	if err != nil {
		return fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	if deviceID < 0 || deviceID >= len(ins) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}

	m.closePort()

	in := ins[deviceID]
	if err := in.Open(); err != nil {
		m.logger.Error(ErrOpenPort.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w %q: %v", ErrOpenPort, in.String(), err)
	}
	m.inPort = in
	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", in.String()))

	if m.capturing {
		return m.listen()
	}
	return nil
}

// StartCapture starts forwarding messages from the selected port.
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
	if m.inPort == nil {
		m.logger.Error(ErrNoDeviceChosen.Error())
		return
	}

	m.eventChannel.Store(eventChannel)
	if m.stopFn != nil {
		m.logger.Warn("Capture already started; replacing event channel")
		m.capturing = true
		return
	}
	if err := m.listen(); err != nil {
		return
	}
	m.capturing = true
	m.logger.Info("Starting MIDI event capture")
}

func (m *ClientMid) listen() error {
	name := m.inPort.String()
	stop, err := midi.ListenTo(m.inPort, m.handleMessage, midi.HandleError(func(listenErr error) {
		m.logger.Warn("MIDI listener error",
			m.logger.Field().String("deviceName", name),
			m.logger.Field().Error("error", listenErr))
	}))
	if err != nil {
		m.logger.Error(ErrListen.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w %q: %v", ErrListen, name, err)
	}
	m.stopFn = stop
	return nil
}

// handleMessage copies the message out of the driver buffer and sends it
// without blocking.
func (m *ClientMid) handleMessage(msg midi.Message, _ int32) {
	eventChannel, _ := m.eventChannel.Load().(chan contracts.MIDI)
	if eventChannel == nil {
		return
	}

	data := make([]byte, len(msg))
	copy(data, msg)
	select {
	case eventChannel <- contracts.MIDI{Timestamp: uint64(time.Now().UTC().UnixNano()), Data: data}:
	default:
		m.logger.Warn("Event buffer full; dropping MIDI event")
	}
}

func (m *ClientMid) closePort() {
	if m.stopFn != nil {
		m.stopFn()
		m.stopFn = nil
	}
	if m.inPort != nil {
		if err := m.inPort.Close(); err != nil {
			m.logger.Warn("error closing MIDI port", m.logger.Field().Error("error", err))
		}
		m.inPort = nil
	}
}

// Stop closes the port and the driver. Later calls are no-ops.
func (m *ClientMid) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.capturing = false
	m.eventChannel.Store((chan contracts.MIDI)(nil))
	m.closePort()
	if err := m.drv.Close(); err != nil {
		return fmt.Errorf("error closing rtmidi driver: %w", err)
	}
	m.logger.Info("MIDI capture stopped")
	return nil
}
