//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/leandrodaf/vjsense/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type HMIDIIN windows.Handle

// Constants for callback flags
const (
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

// Errors reported by the winmm backend.
var (
	ErrNoMIDIDevices  = errors.New("no MIDI devices found")
	ErrInvalidHandle  = errors.New("invalid MIDI device handle")
	ErrOpenDevice     = errors.New("failed to open MIDI device")
	ErrStartCapture   = errors.New("failed to start MIDI capture")
	ErrStopCapture    = errors.New("failed to stop MIDI capture")
	ErrCloseDevice    = errors.New("failed to close MIDI device")
	ErrNoDeviceChosen = errors.New("no MIDI device selected")
)

// Struct representing MIDI device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// ClientMid reads raw MIDI through winmm.dll.
type ClientMid struct {
	logger       contracts.Logger
	eventChannel atomic.Value // chan contracts.MIDI read by midiInCallback.
	handle       HMIDIIN
	portConn     bool
	capturing    bool
	mu           sync.Mutex
}

// Load the winmm.dll library and required functions
var (
	winmm                = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen       = winmm.NewProc("midiInOpen")
	procMidiInStart      = winmm.NewProc("midiInStart")
	procMidiInStop       = winmm.NewProc("midiInStop")
	procMidiInClose      = winmm.NewProc("midiInClose")
)

// windows.NewCallback slots are never released, so one is shared by every client.
var (
	callbackOnce sync.Once
	callbackPtr  uintptr
)

func midiCallback() uintptr {
	callbackOnce.Do(func() {
		callbackPtr = windows.NewCallback(midiInCallback)
	})
	return callbackPtr
}

// NewMIDIClient creates a MIDI client for Windows
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Info("MIDI client created for Windows")

	return &ClientMid{
		logger: options.Logger,
	}, nil
}

// ListDevices lists the available MIDI input devices
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, 0, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			m.logger.Warn("Failed to get MIDI device capabilities", m.logger.Field().Int("deviceID", int(i)))
			devices = append(devices, deviceEntry(int(i), "", 0, 0, false))
			continue
		}
		name := windows.UTF16ToString(caps.szPname[:])
		devices = append(devices, deviceEntry(int(i), name, caps.wMid, caps.wPid, true))
	}
	return devices, nil
}

// SelectDevice opens a MIDI device, closing the previous one. When capture
// is running it is restarted on the new device with the same channel.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portConn {
		if err := m.closeDevice(); err != nil {
			return err
		}
	}

	fdwOpen := CALLBACK_FUNCTION | MIDI_IO_STATUS
	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&m.handle)),
		uintptr(deviceID),
		midiCallback(),
		uintptr(unsafe.Pointer(m)),
		uintptr(fdwOpen),
	)
	if r1 != 0 {
		m.logger.Error(ErrOpenDevice.Error(),
			m.logger.Field().Int("deviceID", deviceID),
			m.logger.Field().Error("error", err))
		return fmt.Errorf("%w %d: %v", ErrOpenDevice, deviceID, err)
	}

	m.portConn = true
	m.logger.Info("MIDI device connected", m.logger.Field().Int("deviceID", deviceID))

	if m.capturing {
		return m.start()
	}
	return nil
}

// StartCapture initializes MIDI event capture
func (m *ClientMid) StartCapture(eventChannel chan contracts.MIDI) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.portConn {
		m.logger.Error(ErrNoDeviceChosen.Error())
		return
	}

	m.eventChannel.Store(eventChannel)
	if err := m.start(); err != nil {
		return
	}
	m.capturing = true
	m.logger.Info("MIDI capture started")
}

func (m *ClientMid) start() error {
	if m.handle == 0 {
		m.logger.Error(ErrInvalidHandle.Error())
		return ErrInvalidHandle
	}
	r1, _, err := procMidiInStart.Call(uintptr(m.handle))
	if r1 != 0 {
		m.logger.Error(ErrStartCapture.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrStartCapture, err)
	}
	return nil
}

// midiInCallback runs on a winmm thread for every driver message.
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	m := (*ClientMid)(unsafe.Pointer(dwInstance))

	switch wMsg {
	case MIM_OPEN:
		m.logger.Debug("MIDI device opened")
	case MIM_CLOSE:
		m.logger.Debug("MIDI device closed")
	case MIM_DATA:
		status := byte(dwParam1 & 0xFF)
		packed := [3]byte{
			status,
			byte((dwParam1 >> 8) & 0xFF),
			byte((dwParam1 >> 16) & 0xFF),
		}
		data := make([]byte, messageLength(status))
		copy(data, packed[:])

		ch, ok := m.eventChannel.Load().(chan contracts.MIDI)
		if !ok || ch == nil {
			return 0
		}
		select {
		case ch <- contracts.MIDI{Timestamp: uint64(time.Now().UTC().UnixNano()), Data: data}:
		default:
			m.logger.Warn("MIDI event channel is full; event discarded")
		}
	case MIM_ERROR, MIM_LONGERROR:
		m.logger.Warn("MIDI driver error", m.logger.Field().Int("message", int(wMsg)))
	case MIM_MOREDATA:
		m.logger.Debug("Received MIM_MOREDATA message; ignored")
	default:
		m.logger.Warn("Unknown MIDI message", m.logger.Field().Int("message", int(wMsg)))
	}

	return 0
}

// messageLength returns the size of a short message from its status byte.
// winmm always packs three bytes; program change and channel pressure carry two.
func messageLength(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 2
	case 0xF0:
		switch status {
		case 0xF1, 0xF3:
			return 2
		case 0xF2:
			return 3
		default:
			return 1
		}
	default:
		return 3
	}
}

// Stop terminates MIDI event capture and disconnects the device
func (m *ClientMid) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.capturing = false
	m.eventChannel.Store((chan contracts.MIDI)(nil))
	if !m.portConn {
		return nil
	}

	if err := m.closeDevice(); err != nil {
		return err
	}
	m.logger.Info("MIDI capture stopped and device closed")
	return nil
}

// closeDevice stops input and closes the handle.
func (m *ClientMid) closeDevice() error {
	if m.handle == 0 {
		return ErrInvalidHandle
	}

	r1, _, err := procMidiInStop.Call(uintptr(m.handle))
	if r1 != 0 {
		m.logger.Error(ErrStopCapture.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrStopCapture, err)
	}

	r1, _, err = procMidiInClose.Call(uintptr(m.handle))
	if r1 != 0 {
		m.logger.Error(ErrCloseDevice.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrCloseDevice, err)
	}

	m.portConn = false
	m.handle = 0
	return nil
}
