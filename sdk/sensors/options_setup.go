package sensors

import (
	"github.com/leandrodaf/vjsense/internal/audio"
	"github.com/leandrodaf/vjsense/internal/config"
	"github.com/leandrodaf/vjsense/internal/logger"
	"github.com/leandrodaf/vjsense/internal/midi"
	"github.com/leandrodaf/vjsense/sdk/contracts"
)

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: A structure containing the finalized options with defaults applied.
//   - error: An error if there was an issue applying the options.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "vjsense"}
	}
	if options.ConfigPath == "" {
		options.ConfigPath = config.DefaultPath()
	}
	if options.AudioBackend == "" {
		options.AudioBackend = contracts.AudioBackendPortAudio
	}
	if options.MIDIBackend == "" {
		options.MIDIBackend = contracts.MIDIBackendAuto
	}
	if options.TransformSize == 0 {
		options.TransformSize = audio.DefaultTransformSize
	}
	if options.Window == "" {
		options.Window = audio.WindowNone
	}
	if options.MIDIChannels == nil {
		channels := midi.DefaultChannels
		options.MIDIChannels = &channels
	}
	if options.EventBuffer == 0 {
		options.EventBuffer = midi.DefaultBuffer
	}

	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}
	options.Logger.SetLevel(options.LogLevel)
	return *options, nil
}
