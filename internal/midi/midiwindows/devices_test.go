package midiwindows

import "testing"

func TestDeviceEntryKeepsPositions(t *testing.T) {
	devices := []struct {
		name string
		ok   bool
	}{
		{"Launchkey MK3", true},
		{"", false},
		{"loopMIDI Port", true},
	}

	for id, d := range devices {
		entry := deviceEntry(id, d.name, 1, 2, d.ok)
		if entry.Index != id {
			t.Errorf("entry %d has Index %d", id, entry.Index)
		}
		if entry.Name == "" {
			t.Errorf("entry %d has no name", id)
		}
		if d.ok && entry.Name != d.name {
			t.Errorf("entry %d name = %q, want %q", id, entry.Name, d.name)
		}
	}
}
