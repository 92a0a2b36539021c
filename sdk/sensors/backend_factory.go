package sensors

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/vjsense/internal/audio/audiominiaudio"
	"github.com/leandrodaf/vjsense/internal/audio/audioportaudio"
	"github.com/leandrodaf/vjsense/internal/midi/mididarwin"
	"github.com/leandrodaf/vjsense/internal/midi/midirtmidi"
	"github.com/leandrodaf/vjsense/internal/midi/midiwindows"
	"github.com/leandrodaf/vjsense/sdk/contracts"
)

// Errors returned while choosing a backend.
var (
	ErrUnsupportedOS  = errors.New("unsupported operating system")
	ErrUnknownBackend = errors.New("unknown backend")
)

type (
	midiInitializer  func(*contracts.ClientOptions) (contracts.ClientMIDI, error)
	audioInitializer func(*contracts.ClientOptions) (contracts.AudioCapture, error)
)

// nativeMIDIBackends maps OS names to the backend used by MIDIBackendAuto.
var nativeMIDIBackends = map[string]string{
	"darwin":  contracts.MIDIBackendCoreMIDI,
	"windows": contracts.MIDIBackendWinMM,
	"linux":   contracts.MIDIBackendRtMidi,
	"freebsd": contracts.MIDIBackendRtMidi,
}

var midiInitializers = map[string]midiInitializer{
	contracts.MIDIBackendCoreMIDI: mididarwin.NewMIDIClient,
	contracts.MIDIBackendWinMM:    midiwindows.NewMIDIClient,
	contracts.MIDIBackendRtMidi:   midirtmidi.NewMIDIClient,
}

var audioInitializers = map[string]audioInitializer{
	contracts.AudioBackendPortAudio: audioportaudio.NewCapture,
	contracts.AudioBackendMiniaudio: audiominiaudio.NewCapture,
}

// NewMIDIClient returns options.MIDIClient when set, otherwise initializes
// the backend named by options.MIDIBackend. MIDIBackendAuto picks CoreMIDI
// on macOS, winmm on Windows and rtmidi elsewhere, returning
// ErrUnsupportedOS for systems without a native mapping.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	if options.MIDIClient != nil {
		return options.MIDIClient, nil
	}

	name := options.MIDIBackend
	if name == "" || name == contracts.MIDIBackendAuto {
		native, ok := nativeMIDIBackends[runtime.GOOS]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
		}
		name = native
	}

	initializer, ok := midiInitializers[name]
	if !ok {
		return nil, fmt.Errorf("%w: midi %q", ErrUnknownBackend, name)
	}
	return initializer(options)
}

// NewAudioCapture returns options.AudioCapture when set, otherwise
// initializes the backend named by options.AudioBackend.
func NewAudioCapture(options *contracts.ClientOptions) (contracts.AudioCapture, error) {
	if options.AudioCapture != nil {
		return options.AudioCapture, nil
	}

	initializer, ok := audioInitializers[options.AudioBackend]
	if !ok {
		return nil, fmt.Errorf("%w: audio %q", ErrUnknownBackend, options.AudioBackend)
	}
	return initializer(options)
}
