package contracts

// MIDI is a raw message as delivered by a MIDI backend.
type MIDI struct {
	Timestamp uint64 // Timestamp is the receive time in nanoseconds since the Unix epoch.
	Data      []byte // Data holds the status byte followed by its data bytes.
}

// MIDIEvent is the normalized note event emitted on the "midi" channel.
type MIDIEvent struct {
	Channel  uint8 `json:"channel"`  // 1-indexed MIDI channel.
	Note     uint8 `json:"note"`     // Note number (0-127).
	Velocity uint8 `json:"velocity"` // Velocity (0-127).
}

// ClientMIDI defines the operations every MIDI input backend implements.
type ClientMIDI interface {
	Stop() error                         // Stops capture and releases the port.
	ListDevices() ([]DeviceInfo, error)  // Lists all available MIDI input ports.
	SelectDevice(deviceID int) error     // Connects to the port at deviceID, replacing any previous one.
	StartCapture(eventChannel chan MIDI) // Starts forwarding raw messages to eventChannel without blocking.
}
