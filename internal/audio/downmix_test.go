package audio

import (
	"math"
	"testing"
)

func TestDownmix(t *testing.T) {
	tests := []struct {
		name     string
		in       []float32
		channels int
		want     []float32
	}{
		{"mono passthrough", []float32{0.1, 0.2, 0.3}, 1, []float32{0.1, 0.2, 0.3}},
		{"stereo average", []float32{1, 0, 0.5, 0.5, -1, 1}, 2, []float32{0.5, 0.5, 0}},
		{"partial frame dropped", []float32{1, 1, 1}, 2, []float32{1}},
		{"four channels", []float32{1, 1, 1, 1, 0, 0, 0, 4}, 4, []float32{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Downmix(tt.in, tt.channels, nil)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDownmixReusesBuffer(t *testing.T) {
	buf := make([]float32, 0, 8)
	out := Downmix([]float32{1, 3, 5, 7}, 2, buf)
	if &out[0] != &buf[:1][0] {
		t.Error("buffer with enough capacity was not reused")
	}
}

func TestDecodeFloat32LE(t *testing.T) {
	raw := make([]byte, 0, 12)
	for _, v := range []float32{0.5, -1, 0.25} {
		bits := math.Float32bits(v)
		raw = append(raw, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}

	got := DecodeFloat32LE(raw, 3, nil)
	want := []float32{0.5, -1, 0.25}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}

	if got := DecodeFloat32LE(raw[:10], 5, nil); len(got) != 2 {
		t.Errorf("short input decoded %d samples, want 2", len(got))
	}
}
