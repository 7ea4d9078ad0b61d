package autoconnect

import (
	"context"
	"time"

	"github.com/bluefusion/bluefusion-go/radio"
)

// connectionManagerLoop is the per-device task: it keeps driving address's
// ManagedConnection through the state machine until ctx is canceled.
func (m *Manager) connectionManagerLoop(ctx context.Context, address string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		m.mu.Lock()
		conn, ok := m.connections[address]
		m.mu.Unlock()
		if !ok {
			return
		}

		conn.mu.Lock()
		state := conn.State
		enabled := conn.Enabled
		conn.mu.Unlock()
		if !enabled {
			return
		}

		switch state {
		case Disconnected:
			conn.mu.Lock()
			retry := conn.shouldRetry(time.Now())
			conn.mu.Unlock()
			if retry {
				m.attemptConnection(ctx, address)
			} else if !m.sleep(ctx, conn.Config.StabilityCheckInterval) {
				return
			}

		case Connected:
			if !m.monitorConnectionHealth(ctx, address) {
				return
			}

		case Failed:
			conn.mu.Lock()
			delay := conn.Config.RetryDelay(conn.RetryCount)
			conn.mu.Unlock()
			if !m.sleep(ctx, delay) {
				return
			}
			conn.mu.Lock()
			conn.State = Disconnected
			conn.mu.Unlock()

		case Paused:
			conn.mu.Lock()
			expired := conn.PausedUntil != nil && !time.Now().Before(*conn.PausedUntil)
			if expired {
				conn.PausedUntil = nil
				conn.State = Disconnected
			}
			conn.mu.Unlock()
			if !expired {
				if !m.sleep(ctx, time.Second) {
					return
				}
			}

		default:
			if !m.sleep(ctx, time.Second) {
				return
			}
		}
	}
}

// sleep waits for d or ctx cancellation, reporting false if canceled.
func (m *Manager) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = time.Millisecond
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// attemptConnection runs a single bounded connection attempt against the
// radio, gated by the manager's global attempt semaphore so at most
// DefaultMaxConcurrentAttempts connects (or the WithMaxConcurrentAttempts
// value) run at once across every device.
func (m *Manager) attemptConnection(ctx context.Context, address string) {
	m.mu.Lock()
	conn, ok := m.connections[address]
	m.mu.Unlock()
	if !ok {
		return
	}

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer m.sem.Release(1)

	conn.mu.Lock()
	conn.State = Connecting
	started := time.Now()
	conn.ConnectStartedAt = &started
	retryCount := conn.RetryCount
	timeout := conn.Config.ConnectionTimeout
	conn.mu.Unlock()

	m.bus.publish(Event{Address: address, Type: EventConnectionAttempt, Data: map[string]interface{}{"retry_count": retryCount}})

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		ok  bool
		err error
	}
	result := make(chan outcome, 1)
	go func() {
		ok, err := m.radio.Connect(attemptCtx, address)
		result <- outcome{ok, err}
	}()

	select {
	case <-attemptCtx.Done():
		if attemptCtx.Err() == context.DeadlineExceeded {
			m.recordFailureAndEmit(conn, address, EventConnectionTimeout, map[string]interface{}{"timeout": timeout})
		}
		return
	case res := <-result:
		duration := time.Since(started)
		switch {
		case res.err != nil:
			m.recordFailureAndEmit(conn, address, EventConnectionError, map[string]interface{}{"error": res.err.Error()})
		case res.ok:
			conn.mu.Lock()
			conn.State = Connected
			conn.RetryCount = 0
			now := time.Now()
			conn.LastActivityAt = &now
			conn.Metrics.recordSuccess(now, duration)
			retryAfter := conn.RetryCount
			conn.mu.Unlock()
			m.bus.publish(Event{Address: address, Type: EventConnectionSuccess, Data: map[string]interface{}{
				"connection_time": duration,
				"retry_count":     retryAfter,
			}})
		default:
			m.recordFailureAndEmit(conn, address, EventConnectionFailed, nil)
		}
	}
}

func (m *Manager) recordFailureAndEmit(conn *ManagedConnection, address string, evtType EventType, extra map[string]interface{}) {
	conn.mu.Lock()
	conn.State = Failed
	conn.RetryCount++
	now := time.Now()
	conn.Metrics.recordFailure(now)
	retryCount := conn.RetryCount
	nextDelay := conn.Config.RetryDelay(conn.RetryCount)
	conn.mu.Unlock()

	data := map[string]interface{}{"retry_count": retryCount, "next_retry_delay": nextDelay}
	for k, v := range extra {
		data[k] = v
	}
	m.bus.publish(Event{Address: address, Type: evtType, Data: data})
}

// monitorConnectionHealth demotes address to Disconnected and emits
// connection_stale if it has gone stale (no activity for more than twice
// the health-check interval); otherwise it sleeps for one health-check
// interval. It returns false if ctx was canceled mid-wait.
func (m *Manager) monitorConnectionHealth(ctx context.Context, address string) bool {
	m.mu.Lock()
	conn, ok := m.connections[address]
	m.mu.Unlock()
	if !ok {
		return true
	}

	conn.mu.Lock()
	interval := conn.Config.HealthCheckInterval
	lastActivity := conn.LastActivityAt
	conn.mu.Unlock()

	if lastActivity != nil && time.Since(*lastActivity) > 2*interval {
		conn.mu.Lock()
		conn.State = Disconnected
		conn.mu.Unlock()
		m.bus.publish(Event{Address: address, Type: EventConnectionStale, Data: map[string]interface{}{
			"time_since_activity": time.Since(*lastActivity),
		}})
		return true
	}

	return m.sleep(ctx, interval)
}

// stabilityMonitorLoop periodically publishes a StabilityReport event
// summarizing every managed connection.
func (m *Manager) stabilityMonitorLoop(ctx context.Context) {
	defer m.wg.Done()

	m.mu.Lock()
	interval := m.defaultConfig.StabilityCheckInterval
	m.mu.Unlock()

	for {
		report := map[string]interface{}{}
		for addr, view := range m.GetAllConnectionsStatus() {
			report[addr] = map[string]interface{}{
				"state":       view.State.String(),
				"metrics":     view.Metrics,
				"retry_count": view.RetryCount,
				"enabled":     view.Enabled,
			}
		}
		m.bus.publish(Event{Address: "manager", Type: EventStabilityReport, Data: report})

		if !m.sleep(ctx, interval) {
			return
		}
	}
}

// onRadioEvent handles Connection/Disconnection packets for a managed
// address: it refreshes last-activity and, on disconnection with
// reconnect_on_failure, restarts the per-device loop.
func (m *Manager) onRadioEvent(p radio.RawPacket) {
	m.mu.Lock()
	conn, ok := m.connections[p.Address]
	m.mu.Unlock()
	if !ok {
		return
	}

	conn.mu.Lock()
	now := time.Now()
	conn.LastActivityAt = &now

	switch p.Class {
	case radio.ClassConnection:
		conn.State = Connected
		conn.RetryCount = 0
	case radio.ClassDisconnection:
		conn.State = Disconnected
		if conn.Config.ReconnectOnFailure {
			conn.RetryCount = 0
		}
	}
	reconnect := p.Class == radio.ClassDisconnection && conn.Config.ReconnectOnFailure
	conn.mu.Unlock()

	if reconnect {
		m.mu.Lock()
		_, hasTask := m.cancels[p.Address]
		running := m.running
		m.mu.Unlock()
		if running && !hasTask {
			m.startDeviceTask(p.Address)
		}
	}
}
