// Package config holds the authoritative per-layer visual parameters.
//
// A Store is created once at startup and handed to every pipeline and
// command handler. Every operation takes the same mutex for its whole
// duration, so readers never see a partially updated snapshot.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/leandrodaf/vjsense/sdk/contracts"
)

// Layer defaults.
const (
	DefaultOpacity        float32 = 1.0
	DefaultFadeDurationMs uint64  = 200
)

// FileName is the name of the persisted configuration document.
const FileName = "config.json"

// Errors returned by Persist, and by decoding when Load falls back.
var (
	ErrEmptyPath    = errors.New("config path is empty")
	ErrEncode       = errors.New("error encoding config")
	ErrWrite        = errors.New("error writing config")
	ErrMissingField = errors.New("config field missing")
)

// DefaultLayer returns the parameters given to a layer that has never been configured.
func DefaultLayer() contracts.LayerParameters {
	return contracts.LayerParameters{
		Opacity:        DefaultOpacity,
		FadeDurationMs: DefaultFadeDurationMs,
	}
}

// DefaultSnapshot returns the three pre-populated layers A, B and C bound to
// MIDI channels 14, 15 and 16.
func DefaultSnapshot() contracts.ConfigSnapshot {
	layers := make(map[string]contracts.LayerParameters, 3)
	for i, key := range []string{"A", "B", "C"} {
		layer := DefaultLayer()
		layer.MIDIChannel = uint8(14 + i)
		layers[key] = layer
	}
	return contracts.ConfigSnapshot{Layers: layers}
}

// DefaultPath returns <user config dir>/vjsense/config.json, or ./config.json
// when the user config dir cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(dir, "vjsense", FileName)
}

// Load reads the snapshot at path. Any failure, including a missing file on
// first run, yields DefaultSnapshot; no error is returned.
func Load(path string, logger contracts.Logger) contracts.ConfigSnapshot {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("config not readable; using defaults",
			logger.Field().String("path", path),
			logger.Field().Error("error", err))
		return DefaultSnapshot()
	}

	snapshot, err := decode(data)
	if err != nil {
		logger.Debug("config malformed; using defaults",
			logger.Field().String("path", path),
			logger.Field().Error("error", err))
		return DefaultSnapshot()
	}
	return snapshot
}

// storedLayer mirrors contracts.LayerParameters with every key required.
type storedLayer struct {
	Opacity        *float32 `json:"opacity"`
	FadeDurationMs *uint64  `json:"fade_ms"`
	ThumbnailPath  *string  `json:"thumbnail"`
	MIDIChannel    *uint8   `json:"midi_channel"`
}

type storedSnapshot struct {
	Layers map[string]*storedLayer `json:"layers"`
}

// decode parses a persisted document, rejecting one without a layers
// object or with a layer that omits any of its four keys.
func decode(data []byte) (contracts.ConfigSnapshot, error) {
	var stored storedSnapshot
	if err := json.Unmarshal(data, &stored); err != nil {
		return contracts.ConfigSnapshot{}, err
	}
	if stored.Layers == nil {
		return contracts.ConfigSnapshot{}, fmt.Errorf("%w: layers", ErrMissingField)
	}

	layers := make(map[string]contracts.LayerParameters, len(stored.Layers))
	for key, l := range stored.Layers {
		if l == nil || l.Opacity == nil || l.FadeDurationMs == nil || l.ThumbnailPath == nil || l.MIDIChannel == nil {
			return contracts.ConfigSnapshot{}, fmt.Errorf("%w: layer %q", ErrMissingField, key)
		}
		layers[key] = contracts.LayerParameters{
			Opacity:        *l.Opacity,
			FadeDurationMs: *l.FadeDurationMs,
			ThumbnailPath:  *l.ThumbnailPath,
			MIDIChannel:    *l.MIDIChannel,
		}
	}
	return contracts.ConfigSnapshot{Layers: layers}, nil
}

// Store guards a ConfigSnapshot with a single mutex.
type Store struct {
	mu       sync.Mutex
	snapshot contracts.ConfigSnapshot
	logger   contracts.Logger
}

// NewStore takes ownership of a copy of snapshot.
func NewStore(snapshot contracts.ConfigSnapshot, logger contracts.Logger) *Store {
	return &Store{snapshot: snapshot.Clone(), logger: logger}
}

// Get returns a copy of the current snapshot.
func (s *Store) Get() contracts.ConfigSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// Layer returns a copy of one layer's parameters.
func (s *Store) Layer(key string) (contracts.LayerParameters, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	layer, ok := s.snapshot.Layers[key]
	return layer, ok
}

// SetLayerOpacity changes only the opacity of an existing layer, or inserts a
// default layer with that opacity. Values are stored as given.
func (s *Store) SetLayerOpacity(key string, opacity float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	layer, ok := s.snapshot.Layers[key]
	if !ok {
		layer = DefaultLayer()
	}
	layer.Opacity = opacity
	s.snapshot.Layers[key] = layer
}

// SetLayer replaces or inserts a whole layer entry.
func (s *Store) SetLayer(key string, params contracts.LayerParameters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Layers[key] = params
}

// Persist writes the snapshot as indented JSON. The lock is held across the
// write so the file always matches a state the store actually had.
func (s *Store) Persist(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	s.logger.Info("config saved",
		s.logger.Field().String("path", path),
		s.logger.Field().Int("layers", len(s.snapshot.Layers)))
	return nil
}

// writeFile replaces path through a temp file in the same directory so a
// failed write never truncates the previous document.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
