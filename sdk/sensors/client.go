package sensors

import (
	"github.com/leandrodaf/vjsense/sdk/contracts"
	"github.com/leandrodaf/vjsense/sdk/engine"
)

// NewEngine creates a sensing engine with the specified options.
// It applies default options, builds the audio and MIDI backends and loads
// the persisted layer configuration.
//
// opts ...contracts.Option: A variadic list of option functions to customize the engine.
//
// Returns:
//   - *engine.Engine: The engine, ready to Run.
//   - error: An error, if any occurred while creating a backend or the pipelines.
func NewEngine(opts ...contracts.Option) (*engine.Engine, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	capture, err := NewAudioCapture(&options)
	if err != nil {
		return nil, err
	}

	client, err := NewMIDIClient(&options)
	if err != nil {
		release(&options, capture)
		return nil, err
	}

	e, err := engine.New(capture, client, &options)
	if err != nil {
		release(&options, capture, client)
		return nil, err
	}
	return e, nil
}

// release stops backends built for an engine that could not be created.
func release(options *contracts.ClientOptions, backends ...interface{ Stop() error }) {
	for _, b := range backends {
		if err := b.Stop(); err != nil {
			options.Logger.Warn("error releasing backend", options.Logger.Field().Error("error", err))
		}
	}
}
