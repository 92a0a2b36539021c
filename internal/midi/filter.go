package midi

import "github.com/leandrodaf/vjsense/sdk/contracts"

// DefaultChannels accepts zero-indexed channels 13-15, emitted as 14-16.
var DefaultChannels = contracts.MIDIChannelRange{Min: 13, Max: 15}

// Filter decides which raw messages become "midi" events.
type Filter struct {
	Channels contracts.MIDIChannelRange
	Commands []contracts.MIDICommand // empty accepts every command
}

// NewFilter builds a filter, substituting DefaultChannels when channels is nil.
func NewFilter(channels *contracts.MIDIChannelRange, commands *contracts.MIDIEventFilter) Filter {
	f := Filter{Channels: DefaultChannels}
	if channels != nil {
		f.Channels = *channels
	}
	if commands != nil {
		f.Commands = commands.Commands
	}
	return f
}

// Apply returns the event for raw, or false when raw is shorter than three
// bytes or addressed to a channel or command the filter rejects.
func (f Filter) Apply(raw []byte) (contracts.MIDIEvent, bool) {
	if len(raw) < 3 {
		return contracts.MIDIEvent{}, false
	}

	status := raw[0]
	channel := status & 0x0F
	if channel < f.Channels.Min || channel > f.Channels.Max {
		return contracts.MIDIEvent{}, false
	}
	if len(f.Commands) > 0 && !isCommandAllowed(status&0xF0, f.Commands) {
		return contracts.MIDIEvent{}, false
	}

	return contracts.MIDIEvent{
		Channel:  channel + 1,
		Note:     raw[1],
		Velocity: raw[2],
	}, true
}

// isCommandAllowed checks if the MIDI command is allowed by the filter
func isCommandAllowed(command byte, allowedCommands []contracts.MIDICommand) bool {
	for _, allowedCommand := range allowedCommands {
		if command == byte(allowedCommand) {
			return true
		}
	}
	return false
}
