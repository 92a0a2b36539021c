package contracts

// Named event channels.
const (
	ChannelFFT   = "fft"   // Payload: SpectrumFrame.
	ChannelMIDI  = "midi"  // Payload: MIDIEvent.
	ChannelError = "error" // Payload: string, emitted on fatal pipeline startup failure.
)

// Event is a single emission delivered to a subscriber.
type Event struct {
	Channel string
	Payload interface{}
}

// EventSink receives pipeline output. Emit must never block; a returned
// error only reports that the payload did not reach every subscriber.
type EventSink interface {
	Emit(channel string, payload interface{}) error
}
