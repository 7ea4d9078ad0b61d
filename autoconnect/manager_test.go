package autoconnect

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bluefusion/bluefusion-go/radio"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialRetryDelay = 10 * time.Millisecond
	cfg.MaxRetryDelay = 20 * time.Millisecond
	cfg.ConnectionTimeout = 200 * time.Millisecond
	cfg.StabilityCheckInterval = 20 * time.Millisecond
	cfg.HealthCheckInterval = 50 * time.Millisecond
	cfg.MaxRetries = 10
	cfg.MaxConsecutiveFailures = 10
	return cfg
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) has(t EventType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Type == t {
			return true
		}
	}
	return false
}

func TestAddManagedDeviceEmitsEvent(t *testing.T) {
	fake := radio.NewFake()
	m := NewManager(fake, fastConfig())
	rec := &eventRecorder{}
	m.Subscribe(rec.record)

	m.AddManagedDevice("AA:BB:CC:DD:EE:FF", nil)

	assert.True(t, rec.has(EventDeviceAdded))
}

func TestManagerConnectsSuccessfully(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := radio.NewFake()
	fake.SetConnectResult("AA:BB:CC:DD:EE:FF", true, nil)

	m := NewManager(fake, fastConfig())
	rec := &eventRecorder{}
	m.Subscribe(rec.record)
	m.AddManagedDevice("AA:BB:CC:DD:EE:FF", nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))

	require.Eventually(t, func() bool {
		return rec.has(EventConnectionSuccess)
	}, 2*time.Second, 10*time.Millisecond)

	status, ok := m.GetConnectionStatus("AA:BB:CC:DD:EE:FF")
	require.True(t, ok)
	assert.Equal(t, Connected, status.State)
	assert.Equal(t, 0, status.RetryCount)
	assert.Equal(t, 1, status.Metrics.Successful)

	cancel()
	require.NoError(t, m.Stop())
}

func TestManagerRetriesOnFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := radio.NewFake()
	fake.SetConnectResult("AA:BB:CC:DD:EE:FF", false, nil)

	m := NewManager(fake, fastConfig())
	rec := &eventRecorder{}
	m.Subscribe(rec.record)
	m.AddManagedDevice("AA:BB:CC:DD:EE:FF", nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))

	require.Eventually(t, func() bool {
		status, ok := m.GetConnectionStatus("AA:BB:CC:DD:EE:FF")
		return ok && status.RetryCount >= 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, rec.has(EventConnectionFailed))

	cancel()
	require.NoError(t, m.Stop())
}

func TestManagerStopIsLeakFree(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := radio.NewFake()
	fake.SetConnectResult("AA:BB:CC:DD:EE:FF", true, nil)

	m := NewManager(fake, fastConfig())
	m.AddManagedDevice("AA:BB:CC:DD:EE:FF", nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))
	time.Sleep(50 * time.Millisecond)
	cancel()
	require.NoError(t, m.Stop())
}

func TestManagerStalenessDemotesToDisconnected(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := radio.NewFake()
	fake.SetConnectResult("AA:BB:CC:DD:EE:FF", true, nil)

	cfg := fastConfig()
	cfg.HealthCheckInterval = 20 * time.Millisecond

	m := NewManager(fake, cfg)
	rec := &eventRecorder{}
	m.Subscribe(rec.record)
	m.AddManagedDevice("AA:BB:CC:DD:EE:FF", nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))

	require.Eventually(t, func() bool {
		return rec.has(EventConnectionSuccess)
	}, time.Second, 10*time.Millisecond)

	conn, ok := m.GetConnectionStatus("AA:BB:CC:DD:EE:FF")
	require.True(t, ok)
	_ = conn

	m.mu.Lock()
	c := m.connections["AA:BB:CC:DD:EE:FF"]
	m.mu.Unlock()
	c.mu.Lock()
	stale := time.Now().Add(-3 * cfg.HealthCheckInterval)
	c.LastActivityAt = &stale
	c.mu.Unlock()

	require.Eventually(t, func() bool {
		return rec.has(EventConnectionStale)
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, m.Stop())
}

func TestManagerDisableCancelsTask(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := radio.NewFake()
	fake.SetConnectResult("AA:BB:CC:DD:EE:FF", false, nil)

	m := NewManager(fake, fastConfig())
	m.AddManagedDevice("AA:BB:CC:DD:EE:FF", nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))
	time.Sleep(30 * time.Millisecond)

	m.DisableDevice("AA:BB:CC:DD:EE:FF")
	status, ok := m.GetConnectionStatus("AA:BB:CC:DD:EE:FF")
	require.True(t, ok)
	assert.False(t, status.Enabled)
	assert.Equal(t, Disconnected, status.State)

	cancel()
	require.NoError(t, m.Stop())
}

func TestManagerDisableDemotesConnectedDevice(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := radio.NewFake()
	fake.SetConnectResult("AA:BB:CC:DD:EE:FF", true, nil)

	m := NewManager(fake, fastConfig())
	rec := &eventRecorder{}
	m.Subscribe(rec.record)
	m.AddManagedDevice("AA:BB:CC:DD:EE:FF", nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))

	require.Eventually(t, func() bool {
		return rec.has(EventConnectionSuccess)
	}, 2*time.Second, 10*time.Millisecond)

	m.DisableDevice("AA:BB:CC:DD:EE:FF")
	status, ok := m.GetConnectionStatus("AA:BB:CC:DD:EE:FF")
	require.True(t, ok)
	assert.False(t, status.Enabled)
	assert.Equal(t, Disconnected, status.State)

	cancel()
	require.NoError(t, m.Stop())
}

func TestManagerPauseDeviceBlocksRetry(t *testing.T) {
	m := NewManager(radio.NewFake(), fastConfig())
	m.AddManagedDevice("AA:BB:CC:DD:EE:FF", nil)

	m.PauseDevice("AA:BB:CC:DD:EE:FF", time.Hour)

	status, ok := m.GetConnectionStatus("AA:BB:CC:DD:EE:FF")
	require.True(t, ok)
	assert.Equal(t, Paused, status.State)
	require.NotNil(t, status.PausedUntil)
	assert.True(t, status.PausedUntil.After(time.Now()))
}
