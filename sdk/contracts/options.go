package contracts

// MIDICommand represents the types of MIDI commands for event filtering.
type MIDICommand byte

const (
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
	// ControlChange is the MIDI command for a Control Change event (0xB0).
	ControlChange MIDICommand = 0xB0
)

// MIDIEventFilter restricts which MIDI commands reach the "midi" channel.
// A nil filter accepts every command.
type MIDIEventFilter struct {
	Commands []MIDICommand // List of MIDI commands to accept.
}

// MIDIChannelRange is an inclusive range of zero-indexed MIDI channels (0-15).
type MIDIChannelRange struct {
	Min uint8
	Max uint8
}

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// Audio backend names.
const (
	AudioBackendPortAudio = "portaudio"
	AudioBackendMiniaudio = "miniaudio"
)

// MIDI backend names. MIDIBackendAuto picks the native backend for the OS.
const (
	MIDIBackendAuto     = "auto"
	MIDIBackendCoreMIDI = "coremidi"
	MIDIBackendWinMM    = "winmm"
	MIDIBackendRtMidi   = "rtmidi"
)

// ClientOptions defines the configuration of the sensing engine.
type ClientOptions struct {
	Logger          Logger            // Logger for logging events and errors.
	LogLevel        LogLevel          // Level of logging to use.
	LogFilePath     string            // File path for logging if file logging is enabled.
	ConfigPath      string            // Location of the persisted layer configuration.
	AudioBackend    string            // Audio capture backend name.
	MIDIBackend     string            // MIDI input backend name.
	TransformSize   int               // FFT size; also the frames requested per audio block.
	SampleRate      float64           // Capture sample rate; zero uses the device default.
	Window          string            // Analysis window applied before the transform.
	MIDIChannels    *MIDIChannelRange // Accepted zero-indexed channels.
	MIDIEventFilter *MIDIEventFilter  // Optional filter for MIDI commands.
	MIDIPort        int               // Index of the MIDI input port opened at startup.
	EventBuffer     int               // Capacity of the raw MIDI channel between backend and pipeline.
	CoreMIDIConfig  *CoreMIDIConfig   // Configuration specific to CoreMIDI.
	AudioCapture    AudioCapture      // Preconstructed audio backend; overrides AudioBackend.
	MIDIClient      ClientMIDI        // Preconstructed MIDI backend; overrides MIDIBackend.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile sends log output to the file at path.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithConfigPath sets where layer configuration is loaded from and saved to.
func WithConfigPath(path string) Option {
	return func(opts *ClientOptions) {
		opts.ConfigPath = path
	}
}

// WithAudioBackend selects the audio capture backend by name.
func WithAudioBackend(name string) Option {
	return func(opts *ClientOptions) {
		opts.AudioBackend = name
	}
}

// WithMIDIBackend selects the MIDI input backend by name.
func WithMIDIBackend(name string) Option {
	return func(opts *ClientOptions) {
		opts.MIDIBackend = name
	}
}

// WithTransformSize sets the number of samples per FFT.
func WithTransformSize(size int) Option {
	return func(opts *ClientOptions) {
		opts.TransformSize = size
	}
}

// WithSampleRate overrides the capture device's default sample rate.
func WithSampleRate(rate float64) Option {
	return func(opts *ClientOptions) {
		opts.SampleRate = rate
	}
}

// WithWindow selects the analysis window ("none", "hann", "hamming",
// "blackman", "bartlett", "flattop").
func WithWindow(name string) Option {
	return func(opts *ClientOptions) {
		opts.Window = name
	}
}

// WithMIDIChannelRange sets the accepted zero-indexed MIDI channels.
func WithMIDIChannelRange(min, max uint8) Option {
	return func(opts *ClientOptions) {
		opts.MIDIChannels = &MIDIChannelRange{Min: min, Max: max}
	}
}

// WithMIDIEventFilter restricts accepted MIDI commands.
func WithMIDIEventFilter(filter MIDIEventFilter) Option {
	return func(opts *ClientOptions) {
		opts.MIDIEventFilter = &filter
	}
}

// WithMIDIPort sets the MIDI input port opened at startup.
func WithMIDIPort(index int) Option {
	return func(opts *ClientOptions) {
		opts.MIDIPort = index
	}
}

// WithEventBuffer sets the raw MIDI channel capacity.
func WithEventBuffer(size int) Option {
	return func(opts *ClientOptions) {
		opts.EventBuffer = size
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithAudioCapture injects an audio backend.
func WithAudioCapture(capture AudioCapture) Option {
	return func(opts *ClientOptions) {
		opts.AudioCapture = capture
	}
}

// WithMIDIClient injects a MIDI backend.
func WithMIDIClient(client ClientMIDI) Option {
	return func(opts *ClientOptions) {
		opts.MIDIClient = client
	}
}
