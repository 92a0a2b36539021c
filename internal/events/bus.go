// Package events implements contracts.EventSink as an in-process,
// non-blocking publish/subscribe bus keyed by channel name.
package events

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/leandrodaf/vjsense/sdk/contracts"
)

// Errors returned by Emit. Producers are expected to discard them.
var (
	ErrNoSubscriber = errors.New("no subscriber for channel")
	ErrDropped      = errors.New("subscriber buffer full; event dropped")
)

// DefaultBuffer is the subscriber capacity used when Subscribe is given a non-positive size.
const DefaultBuffer = 64

type subscription struct {
	ch chan contracts.Event
}

// Bus fans each emitted payload out to the subscribers of its channel.
// A full subscriber loses the event; the emitter never waits.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string][]*subscription
	dropped atomic.Uint64
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]*subscription)}
}

// Subscribe registers a buffered receiver for channel. The returned function
// unsubscribes and closes the receiver; calling it more than once is safe.
func (b *Bus) Subscribe(channel string, buffer int) (<-chan contracts.Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := &subscription{ch: make(chan contracts.Event, buffer)}

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], sub)
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() { b.remove(channel, sub) })
	}
}

func (b *Bus) remove(channel string, sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[channel]
	for i, s := range subs {
		if s == sub {
			b.subs[channel] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[channel]) == 0 {
		delete(b.subs, channel)
	}
	close(sub.ch)
}

// Emit delivers payload to every subscriber of channel without blocking.
func (b *Bus) Emit(channel string, payload interface{}) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := b.subs[channel]
	if len(subs) == 0 {
		return ErrNoSubscriber
	}

	event := contracts.Event{Channel: channel, Payload: payload}
	var err error
	for _, sub := range subs {
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
			err = ErrDropped
		}
	}
	return err
}

// Subscribers reports how many receivers are attached to channel.
func (b *Bus) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}

// Dropped reports how many deliveries were discarded because a subscriber was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}
