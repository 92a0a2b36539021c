package contracts

// DeviceInfo describes a MIDI input port or an audio capture device.
type DeviceInfo struct {
	Index        int     // Position in the backend's device list.
	Name         string  // Device name.
	Manufacturer string  // Device manufacturer, when the backend reports one.
	EntityName   string  // Name of the entity to which the device belongs.
	SampleRate   float64 // Default sample rate; zero for MIDI ports.
	Channels     int     // Maximum input channels; zero for MIDI ports.
	IsDefault    bool    // True for the system default capture device.
}
