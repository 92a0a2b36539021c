package contracts

// LayerParameters are the mutable visual parameters of one layer.
type LayerParameters struct {
	Opacity        float32 `json:"opacity"`
	FadeDurationMs uint64  `json:"fade_ms"`
	ThumbnailPath  string  `json:"thumbnail"`
	MIDIChannel    uint8   `json:"midi_channel"`
}

// ConfigSnapshot maps layer keys ("A", "B", ...) to their parameters.
type ConfigSnapshot struct {
	Layers map[string]LayerParameters `json:"layers"`
}

// Clone returns a deep copy that shares no memory with s.
func (s ConfigSnapshot) Clone() ConfigSnapshot {
	layers := make(map[string]LayerParameters, len(s.Layers))
	for key, layer := range s.Layers {
		layers[key] = layer
	}
	return ConfigSnapshot{Layers: layers}
}
