package autoconnect

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/bluefusion/bluefusion-go/radio"
)

// DefaultMaxConcurrentAttempts bounds how many connection attempts may be
// in flight across all managed devices at once, independent of how many
// devices are managed.
const DefaultMaxConcurrentAttempts = 4

// ShutdownGracePeriod bounds how long Stop waits for per-device tasks and
// the stability monitor to finish after cancellation.
const ShutdownGracePeriod = 5 * time.Second

// Manager drives one state machine per managed address, a stability
// monitor task, and ingestion of external connection/disconnection events
// from the radio layer.
type Manager struct {
	radio         radio.Interface
	defaultConfig Config

	mu          sync.Mutex
	connections map[string]*ManagedConnection
	cancels     map[string]context.CancelFunc

	bus *eventBus
	sem *semaphore.Weighted
	log *logrus.Logger

	wg      sync.WaitGroup
	runCtx  context.Context
	cancel  context.CancelFunc
	running bool

	unregisterRadio func()
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithMaxConcurrentAttempts overrides DefaultMaxConcurrentAttempts.
func WithMaxConcurrentAttempts(n int64) Option {
	return func(m *Manager) { m.sem = semaphore.NewWeighted(n) }
}

// WithLogger overrides the manager's logrus logger.
func WithLogger(log *logrus.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager builds a Manager bound to r, using defaultConfig for devices
// added without an explicit config.
func NewManager(r radio.Interface, defaultConfig Config, opts ...Option) *Manager {
	m := &Manager{
		radio:         r,
		defaultConfig: defaultConfig,
		connections:   map[string]*ManagedConnection{},
		cancels:       map[string]context.CancelFunc{},
		sem:           semaphore.NewWeighted(DefaultMaxConcurrentAttempts),
		log:           logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.bus = newEventBus(m.log)
	return m
}

// Subscribe registers s for every future Event.
func (m *Manager) Subscribe(s Subscriber) {
	m.bus.subscribe(s)
}

// AddManagedDevice registers address for automatic connection management.
// cfg is optional; nil uses the manager's default config.
func (m *Manager) AddManagedDevice(address string, cfg *Config) {
	config := m.defaultConfig
	if cfg != nil {
		config = *cfg
	}

	m.mu.Lock()
	m.connections[address] = newManagedConnection(address, config)
	running := m.running
	m.mu.Unlock()

	m.bus.publish(Event{Address: address, Type: EventDeviceAdded, Data: map[string]interface{}{"config": config}})

	if running {
		m.startDeviceTask(address)
	}
}

// RemoveManagedDevice cancels address's per-device task (if running) and
// forgets it entirely.
func (m *Manager) RemoveManagedDevice(address string) {
	m.mu.Lock()
	if cancel, ok := m.cancels[address]; ok {
		cancel()
		delete(m.cancels, address)
	}
	delete(m.connections, address)
	m.mu.Unlock()

	m.bus.publish(Event{Address: address, Type: EventDeviceRemoved})
}

// EnableDevice re-enables auto-connect for address and, if the manager is
// running and no task is active for it, starts one.
func (m *Manager) EnableDevice(address string) {
	m.mu.Lock()
	conn, ok := m.connections[address]
	if ok {
		conn.mu.Lock()
		conn.Enabled = true
		conn.mu.Unlock()
	}
	_, hasTask := m.cancels[address]
	running := m.running
	m.mu.Unlock()
	if !ok {
		return
	}

	m.bus.publish(Event{Address: address, Type: EventDeviceEnabled})
	if running && !hasTask {
		m.startDeviceTask(address)
	}
}

// DisableDevice disables auto-connect for address and cancels its
// in-flight task.
func (m *Manager) DisableDevice(address string) {
	m.mu.Lock()
	conn, ok := m.connections[address]
	if ok {
		conn.mu.Lock()
		conn.Enabled = false
		conn.State = Disconnected
		conn.mu.Unlock()
	}
	if cancel, hasTask := m.cancels[address]; hasTask {
		cancel()
		delete(m.cancels, address)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	m.bus.publish(Event{Address: address, Type: EventDeviceDisabled})
}

// PauseDevice suspends retries for address until duration elapses.
func (m *Manager) PauseDevice(address string, duration time.Duration) {
	m.mu.Lock()
	conn, ok := m.connections[address]
	m.mu.Unlock()
	if !ok {
		return
	}
	conn.mu.Lock()
	conn.pause(time.Now(), duration)
	conn.mu.Unlock()

	m.bus.publish(Event{Address: address, Type: EventDevicePaused, Data: map[string]interface{}{"duration": duration}})
}

// GetConnectionStatus returns a snapshot of address's managed connection.
func (m *Manager) GetConnectionStatus(address string) (ManagedConnectionView, bool) {
	m.mu.Lock()
	conn, ok := m.connections[address]
	m.mu.Unlock()
	if !ok {
		return ManagedConnectionView{}, false
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.snapshot(), true
}

// GetAllConnectionsStatus returns a snapshot of every managed connection.
func (m *Manager) GetAllConnectionsStatus() map[string]ManagedConnectionView {
	m.mu.Lock()
	addresses := make([]string, 0, len(m.connections))
	conns := make([]*ManagedConnection, 0, len(m.connections))
	for addr, c := range m.connections {
		addresses = append(addresses, addr)
		conns = append(conns, c)
	}
	m.mu.Unlock()

	out := make(map[string]ManagedConnectionView, len(addresses))
	for i, addr := range addresses {
		conns[i].mu.Lock()
		out[addr] = conns[i].snapshot()
		conns[i].mu.Unlock()
	}
	return out
}

// Start launches the stability monitor and one per-device task for every
// enabled managed device.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.runCtx, m.cancel = context.WithCancel(ctx)
	m.running = true
	addresses := make([]string, 0, len(m.connections))
	for addr, c := range m.connections {
		c.mu.Lock()
		enabled := c.Enabled
		c.mu.Unlock()
		if enabled {
			addresses = append(addresses, addr)
		}
	}
	m.mu.Unlock()

	m.unregisterRadio = m.radio.RegisterCallback(m.onRadioEvent)

	m.wg.Add(1)
	go m.stabilityMonitorLoop(m.runCtx)

	for _, addr := range addresses {
		m.startDeviceTask(addr)
	}
	return nil
}

// Stop cancels the stability monitor and every per-device task, waiting
// up to ShutdownGracePeriod for them to finish.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	cancel := m.cancel
	cancels := make([]context.CancelFunc, 0, len(m.cancels))
	for _, c := range m.cancels {
		cancels = append(cancels, c)
	}
	m.cancels = map[string]context.CancelFunc{}
	m.mu.Unlock()

	if m.unregisterRadio != nil {
		m.unregisterRadio()
	}
	for _, c := range cancels {
		c()
	}
	cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(ShutdownGracePeriod):
		return context.DeadlineExceeded
	}
}

func (m *Manager) startDeviceTask(address string) {
	m.mu.Lock()
	if _, exists := m.cancels[address]; exists {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(m.runCtx)
	m.cancels[address] = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go m.connectionManagerLoop(ctx, address)
}
