package radio

import (
	"context"
	"sync"
)

// Fake is an in-memory Interface implementation for tests: Connect/Disconnect
// outcomes are scripted per address, and Emit pushes packets to both the
// channel and callback delivery paths.
type Fake struct {
	mu        sync.Mutex
	connected map[string]bool
	results   map[string]bool
	errs      map[string]error
	callbacks []func(RawPacket)
	stream    chan RawPacket
	scanning  bool
}

// NewFake returns a ready-to-use Fake radio.
func NewFake() *Fake {
	return &Fake{
		connected: map[string]bool{},
		results:   map[string]bool{},
		errs:      map[string]error{},
		stream:    make(chan RawPacket, 64),
	}
}

// SetConnectResult scripts the outcome of a future Connect(address) call.
func (f *Fake) SetConnectResult(address string, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[address] = ok
	f.errs[address] = err
}

func (f *Fake) Initialize(ctx context.Context) error { return nil }

func (f *Fake) StartScanning(ctx context.Context, passive bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanning = true
	return nil
}

func (f *Fake) StopScanning(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanning = false
	return nil
}

func (f *Fake) Connect(ctx context.Context, address string) (bool, error) {
	f.mu.Lock()
	ok, hasResult := f.results[address]
	err := f.errs[address]
	f.mu.Unlock()
	if !hasResult {
		ok = true
	}
	if err != nil {
		return false, err
	}
	if ok {
		f.mu.Lock()
		f.connected[address] = true
		f.mu.Unlock()
	}
	return ok, nil
}

func (f *Fake) Disconnect(ctx context.Context, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.connected, address)
	return nil
}

func (f *Fake) GetDevices(ctx context.Context) ([]Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	devices := make([]Device, 0, len(f.connected))
	for addr := range f.connected {
		devices = append(devices, Device{Address: addr})
	}
	return devices, nil
}

func (f *Fake) PacketStream(ctx context.Context) (<-chan RawPacket, error) {
	return f.stream, nil
}

func (f *Fake) RegisterCallback(fn func(RawPacket)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, fn)
	idx := len(f.callbacks) - 1
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.callbacks[idx] = nil
	}
}

// Emit delivers p to every registered callback and to the stream channel,
// the way a real binding would push a freshly captured packet.
func (f *Fake) Emit(p RawPacket) {
	f.mu.Lock()
	callbacks := append([]func(RawPacket){}, f.callbacks...)
	f.mu.Unlock()
	for _, cb := range callbacks {
		if cb != nil {
			cb(p)
		}
	}
	select {
	case f.stream <- p:
	default:
	}
}

var _ Interface = (*Fake)(nil)
