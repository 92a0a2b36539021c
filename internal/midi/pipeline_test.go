package midi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/vjsense/internal/events"
	"github.com/leandrodaf/vjsense/internal/logger"
	"github.com/leandrodaf/vjsense/sdk/contracts"
)

type fakeClient struct {
	mu        sync.Mutex
	devices   []contracts.DeviceInfo
	listErr   error
	selectErr error
	selected  []int
	ch        chan contracts.MIDI
	captured  chan struct{}
	stopped   bool
}

func newFakeClient(names ...string) *fakeClient {
	devices := make([]contracts.DeviceInfo, len(names))
	for i, n := range names {
		devices[i] = contracts.DeviceInfo{Index: i, Name: n}
	}
	return &fakeClient{devices: devices, captured: make(chan struct{})}
}

func (f *fakeClient) ListDevices() ([]contracts.DeviceInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.devices, f.listErr
}

func (f *fakeClient) SelectDevice(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selectErr != nil {
		return f.selectErr
	}
	f.selected = append(f.selected, id)
	return nil
}

func (f *fakeClient) StartCapture(ch chan contracts.MIDI) {
	f.mu.Lock()
	f.ch = ch
	f.mu.Unlock()
	close(f.captured)
}

func (f *fakeClient) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeClient) send(data ...byte) {
	f.ch <- contracts.MIDI{Timestamp: uint64(time.Now().UnixNano()), Data: data}
}

func (f *fakeClient) selections() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.selected...)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func startPipeline(t *testing.T, client *fakeClient, bus *events.Bus) (*Pipeline, context.CancelFunc, <-chan error) {
	t.Helper()
	p := NewPipeline(client, bus, logger.NewNopLogger(), Config{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	waitFor(t, client.captured)
	return p, cancel, done
}

func TestPipelineEmitsOnlyAcceptedChannels(t *testing.T) {
	client := newFakeClient("Launchkey MK3")
	bus := events.NewBus()
	out, unsubscribe := bus.Subscribe(contracts.ChannelMIDI, 16)
	defer unsubscribe()

	p, cancel, done := startPipeline(t, client, bus)

	client.send(0x9C, 60, 100) // channel 12, dropped
	client.send(0x9D, 60, 100)
	client.send(0x9E, 62, 90)
	client.send(0x90, 1)       // short, ignored
	client.send(0x90, 64, 80)  // channel 0, dropped
	client.send(0x9F, 64, 80)

	want := []contracts.MIDIEvent{
		{Channel: 14, Note: 60, Velocity: 100},
		{Channel: 15, Note: 62, Velocity: 90},
		{Channel: 16, Note: 64, Velocity: 80},
	}
	for i, w := range want {
		select {
		case ev := <-out:
			if ev.Payload != w {
				t.Errorf("event %d = %+v, want %+v", i, ev.Payload, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("event %d not emitted", i)
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
	select {
	case ev := <-out:
		t.Errorf("unexpected extra event %+v", ev)
	default:
	}
	if received, emitted := p.Stats(); received != 6 || emitted != 3 {
		t.Errorf("stats = %d received, %d emitted; want 6, 3", received, emitted)
	}
	if !client.stopped {
		t.Error("backend not stopped on shutdown")
	}
}

func TestPipelineSurvivesMissingSubscriber(t *testing.T) {
	client := newFakeClient("IAC Bus 1")
	_, cancel, done := startPipeline(t, client, events.NewBus())

	for i := 0; i < 10; i++ {
		client.send(0x9D, byte(i), 100)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestPipelineStartupFailureEmitsError(t *testing.T) {
	tests := []struct {
		name    string
		client  *fakeClient
		port    int
		wantErr error
	}{
		{"no ports", newFakeClient(), 0, ErrNoMIDIInput},
		{"listing fails", func() *fakeClient { c := newFakeClient(); c.listErr = errors.New("no MIDI devices found"); return c }(), 0, ErrNoMIDIInput},
		{"port out of range", newFakeClient("only"), 3, ErrInvalidPort},
		{"connect fails", func() *fakeClient { c := newFakeClient("busy"); c.selectErr = errors.New("in use"); return c }(), 0, ErrSelectPort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := events.NewBus()
			errs, unsubscribe := bus.Subscribe(contracts.ChannelError, 1)
			defer unsubscribe()

			p := NewPipeline(tt.client, bus, logger.NewNopLogger(), Config{Port: tt.port})
			err := p.Run(context.Background())

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run error = %v, want %v", err, tt.wantErr)
			}
			select {
			case ev := <-errs:
				if msg, _ := ev.Payload.(string); !strings.HasPrefix(msg, "midi error: ") {
					t.Errorf("error payload = %q", msg)
				}
			default:
				t.Error("no error event emitted")
			}
			if !tt.client.stopped {
				t.Error("backend not released after startup failure")
			}
			if _, err := p.ListPorts(); !errors.Is(err, ErrClosed) {
				t.Errorf("ListPorts after failed Run = %v, want ErrClosed", err)
			}
		})
	}
}

func TestPipelineErrorPayloadMatchesNoInput(t *testing.T) {
	bus := events.NewBus()
	errs, unsubscribe := bus.Subscribe(contracts.ChannelError, 1)
	defer unsubscribe()

	_ = NewPipeline(newFakeClient(), bus, logger.NewNopLogger(), Config{}).Run(context.Background())

	if ev := <-errs; ev.Payload != "midi error: no midi input" {
		t.Errorf("payload = %q", ev.Payload)
	}
}

func TestListAndSelectPorts(t *testing.T) {
	client := newFakeClient("Port A", "Port B")
	p := NewPipeline(client, events.NewBus(), logger.NewNopLogger(), Config{})

	names, err := p.ListPorts()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "Port A" || names[1] != "Port B" {
		t.Errorf("ListPorts = %v", names)
	}

	// Before Run, selecting only records the port.
	if err := p.SelectPort(1); err != nil {
		t.Fatal(err)
	}
	if len(client.selections()) != 0 {
		t.Errorf("backend touched before Run: %v", client.selections())
	}
	if err := p.SelectPort(2); !errors.Is(err, ErrInvalidPort) {
		t.Errorf("out of range: got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	waitFor(t, client.captured)

	if err := p.SelectPort(0); err != nil {
		t.Fatal(err)
	}
	if got := client.selections(); len(got) != 2 || got[0] != 1 || got[1] != 0 {
		t.Errorf("selections = %v, want [1 0]", got)
	}
	if p.Port() != 0 {
		t.Errorf("Port() = %d, want 0", p.Port())
	}

	cancel()
	<-done

	if err := p.SelectPort(1); !errors.Is(err, ErrClosed) {
		t.Errorf("SelectPort after Run = %v, want ErrClosed", err)
	}
	if err := p.Run(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("second Run = %v, want ErrClosed", err)
	}
}

func TestNewPipelineFilter(t *testing.T) {
	p := NewPipeline(newFakeClient(), events.NewBus(), logger.NewNopLogger(), Config{})
	if p.filter.Channels != DefaultChannels {
		t.Errorf("default filter channels = %+v, want %+v", p.filter.Channels, DefaultChannels)
	}

	custom := NewFilter(&contracts.MIDIChannelRange{Min: 0, Max: 0}, nil)
	p = NewPipeline(newFakeClient(), events.NewBus(), logger.NewNopLogger(), Config{Filter: &custom})
	if _, ok := p.filter.Apply([]byte{0x90, 60, 100}); !ok {
		t.Error("explicit channel 1 filter replaced by defaults")
	}
}
