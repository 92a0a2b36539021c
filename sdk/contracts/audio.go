package contracts

// SpectrumFrame holds one magnitude value per transform bin.
type SpectrumFrame []float32

// CaptureConfig describes the stream an AudioCapture backend should open.
type CaptureConfig struct {
	Device         DeviceInfo // Device to open; the backend's default when Name is empty.
	SampleRate     float64    // Sample rate in Hz.
	FramesPerBlock int        // Requested frames per callback.
	Channels       int        // Number of input channels; samples are delivered mono.
}

// AudioCapture defines the operations every audio input backend implements.
//
// onBlock runs on a driver-owned thread and must return within one block's
// real-time duration. onError receives driver-level stream errors reported
// after the stream started; capture continues after them.
type AudioCapture interface {
	DefaultDevice() (DeviceInfo, error)
	ListDevices() ([]DeviceInfo, error)
	Start(cfg CaptureConfig, onBlock func(samples []float32), onError func(error)) error
	Stop() error
}
