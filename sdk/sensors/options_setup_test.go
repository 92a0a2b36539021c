package sensors

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/leandrodaf/vjsense/internal/audio"
	"github.com/leandrodaf/vjsense/internal/logger"
	"github.com/leandrodaf/vjsense/sdk/contracts"
)

func TestApplyDefaultOptions(t *testing.T) {
	options, err := applyDefaultOptions(contracts.WithLogger(logger.NewNopLogger()))
	if err != nil {
		t.Fatal(err)
	}

	if options.AudioBackend != contracts.AudioBackendPortAudio {
		t.Errorf("AudioBackend = %q", options.AudioBackend)
	}
	if options.MIDIBackend != contracts.MIDIBackendAuto {
		t.Errorf("MIDIBackend = %q", options.MIDIBackend)
	}
	if options.TransformSize != audio.DefaultTransformSize {
		t.Errorf("TransformSize = %d", options.TransformSize)
	}
	if options.MIDIChannels == nil || *options.MIDIChannels != (contracts.MIDIChannelRange{Min: 13, Max: 15}) {
		t.Errorf("MIDIChannels = %+v", options.MIDIChannels)
	}
	if options.ConfigPath == "" || filepath.Base(options.ConfigPath) != "config.json" {
		t.Errorf("ConfigPath = %q", options.ConfigPath)
	}
	if options.CoreMIDIConfig == nil || options.CoreMIDIConfig.ClientName == "" {
		t.Error("CoreMIDIConfig not defaulted")
	}
}

func TestApplyDefaultOptionsKeepsOverrides(t *testing.T) {
	options, err := applyDefaultOptions(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithAudioBackend(contracts.AudioBackendMiniaudio),
		contracts.WithTransformSize(2048),
		contracts.WithWindow(audio.WindowHann),
		contracts.WithMIDIChannelRange(0, 3),
		contracts.WithConfigPath("/tmp/layers.json"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if options.AudioBackend != contracts.AudioBackendMiniaudio || options.TransformSize != 2048 ||
		options.Window != audio.WindowHann || options.ConfigPath != "/tmp/layers.json" {
		t.Errorf("overrides lost: %+v", options)
	}
	if options.MIDIChannels.Max != 3 {
		t.Errorf("MIDIChannels = %+v", options.MIDIChannels)
	}
}

type nopCapture struct{ contracts.AudioCapture }

type nopMIDI struct{ contracts.ClientMIDI }

func TestFactoryPrefersInjectedBackends(t *testing.T) {
	capture, client := nopCapture{}, nopMIDI{}
	options := &contracts.ClientOptions{
		Logger:       logger.NewNopLogger(),
		AudioBackend: "does-not-exist",
		MIDIBackend:  "does-not-exist",
		AudioCapture: capture,
		MIDIClient:   client,
	}

	if got, err := NewAudioCapture(options); err != nil || got != contracts.AudioCapture(capture) {
		t.Errorf("NewAudioCapture = %v, %v", got, err)
	}
	if got, err := NewMIDIClient(options); err != nil || got != contracts.ClientMIDI(client) {
		t.Errorf("NewMIDIClient = %v, %v", got, err)
	}
}

func TestFactoryUnknownBackend(t *testing.T) {
	options := &contracts.ClientOptions{
		Logger:       logger.NewNopLogger(),
		AudioBackend: "jack",
		MIDIBackend:  "portmidi",
	}
	if _, err := NewAudioCapture(options); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("NewAudioCapture = %v", err)
	}
	if _, err := NewMIDIClient(options); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("NewMIDIClient = %v", err)
	}
}

func TestNewEngineWithInjectedBackends(t *testing.T) {
	e, err := NewEngine(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithConfigPath(filepath.Join(t.TempDir(), "config.json")),
		contracts.WithAudioCapture(nopCapture{}),
		contracts.WithMIDIClient(nopMIDI{}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(e.GetConfig().Layers) != 3 {
		t.Errorf("layers = %+v", e.GetConfig().Layers)
	}
}

type stopCounter struct {
	stops int
}

func (s *stopCounter) Stop() error {
	s.stops++
	return nil
}

type releasableCapture struct {
	contracts.AudioCapture
	*stopCounter
}

func (r releasableCapture) Stop() error { return r.stopCounter.Stop() }

type releasableMIDI struct {
	contracts.ClientMIDI
	*stopCounter
}

func (r releasableMIDI) Stop() error { return r.stopCounter.Stop() }

func TestNewEngineReleasesBackendsOnFailure(t *testing.T) {
	audioStops, midiStops := &stopCounter{}, &stopCounter{}
	_, err := NewEngine(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithConfigPath(filepath.Join(t.TempDir(), "config.json")),
		contracts.WithTransformSize(1000),
		contracts.WithAudioCapture(releasableCapture{stopCounter: audioStops}),
		contracts.WithMIDIClient(releasableMIDI{stopCounter: midiStops}),
	)
	if !errors.Is(err, audio.ErrInvalidSize) {
		t.Fatalf("NewEngine = %v, want ErrInvalidSize", err)
	}
	if audioStops.stops != 1 || midiStops.stops != 1 {
		t.Errorf("stops: audio=%d midi=%d, want 1 each", audioStops.stops, midiStops.stops)
	}
}

func TestNewEngineReleasesAudioWhenMIDIFails(t *testing.T) {
	audioStops := &stopCounter{}
	_, err := NewEngine(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithAudioCapture(releasableCapture{stopCounter: audioStops}),
		contracts.WithMIDIBackend("portmidi"),
	)
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("NewEngine = %v, want ErrUnknownBackend", err)
	}
	if audioStops.stops != 1 {
		t.Errorf("audio stops = %d, want 1", audioStops.stops)
	}
}
