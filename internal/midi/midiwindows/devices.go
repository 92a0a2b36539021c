package midiwindows

import (
	"fmt"

	"github.com/leandrodaf/vjsense/sdk/contracts"
)

// deviceEntry describes winmm input id. Devices whose capabilities could not
// be read still get an entry so list positions keep matching winmm ids.
func deviceEntry(id int, name string, mid, pid uint16, ok bool) contracts.DeviceInfo {
	if !ok {
		return contracts.DeviceInfo{
			Index: id,
			Name:  fmt.Sprintf("MIDI input %d (unavailable)", id),
		}
	}
	return contracts.DeviceInfo{
		Index:        id,
		Name:         name,
		EntityName:   name,
		Manufacturer: fmt.Sprintf("MID: %d PID: %d", mid, pid),
	}
}
