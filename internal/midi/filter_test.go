package midi

import (
	"testing"

	"github.com/leandrodaf/vjsense/sdk/contracts"
)

func TestFilterChannelRange(t *testing.T) {
	f := NewFilter(nil, nil)

	tests := []struct {
		name    string
		raw     []byte
		want    contracts.MIDIEvent
		accepts bool
	}{
		{"channel 12 dropped", []byte{0x9C, 60, 100}, contracts.MIDIEvent{}, false},
		{"channel 13 becomes 14", []byte{0x9D, 60, 100}, contracts.MIDIEvent{Channel: 14, Note: 60, Velocity: 100}, true},
		{"channel 14 becomes 15", []byte{0x8E, 61, 0}, contracts.MIDIEvent{Channel: 15, Note: 61, Velocity: 0}, true},
		{"channel 15 becomes 16", []byte{0xBF, 7, 127}, contracts.MIDIEvent{Channel: 16, Note: 7, Velocity: 127}, true},
		{"channel 0 dropped", []byte{0x90, 60, 100}, contracts.MIDIEvent{}, false},
		{"two bytes ignored", []byte{0xCD, 5}, contracts.MIDIEvent{}, false},
		{"one byte ignored", []byte{0xF8}, contracts.MIDIEvent{}, false},
		{"empty ignored", nil, contracts.MIDIEvent{}, false},
		{"extra bytes use first three", []byte{0x9E, 64, 90, 1, 2}, contracts.MIDIEvent{Channel: 15, Note: 64, Velocity: 90}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := f.Apply(tt.raw)
			if ok != tt.accepts {
				t.Fatalf("Apply(% X) accepted = %v, want %v", tt.raw, ok, tt.accepts)
			}
			if got != tt.want {
				t.Errorf("Apply(% X) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFilterWrappedChannelSixteenDropped(t *testing.T) {
	// Zero-indexed channel 16 cannot be encoded in a status nibble; the
	// closest raw value wraps to channel 0 and must be dropped.
	f := NewFilter(nil, nil)
	if _, ok := f.Apply([]byte{0x90 | (16 & 0x0F), 60, 100}); ok {
		t.Error("wrapped channel accepted")
	}
}

func TestFilterEmittedChannelAlwaysInRange(t *testing.T) {
	f := NewFilter(nil, nil)
	for status := 0x80; status <= 0xEF; status++ {
		ev, ok := f.Apply([]byte{byte(status), 1, 2})
		if !ok {
			continue
		}
		if ev.Channel < 14 || ev.Channel > 16 {
			t.Fatalf("status 0x%X emitted channel %d", status, ev.Channel)
		}
	}
}

func TestFilterCustomRangeAndCommands(t *testing.T) {
	f := NewFilter(
		&contracts.MIDIChannelRange{Min: 0, Max: 1},
		&contracts.MIDIEventFilter{Commands: []contracts.MIDICommand{contracts.NoteOn, contracts.NoteOff}},
	)

	if ev, ok := f.Apply([]byte{0x91, 60, 100}); !ok || ev.Channel != 2 {
		t.Errorf("note on channel 2: got %+v, %v", ev, ok)
	}
	if _, ok := f.Apply([]byte{0xB0, 7, 100}); ok {
		t.Error("control change accepted despite command filter")
	}
	if _, ok := f.Apply([]byte{0x9D, 60, 100}); ok {
		t.Error("channel 14 accepted outside custom range")
	}
}
