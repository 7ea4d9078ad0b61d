package autoconnect

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// EventType enumerates the kinds of ConnectionEvent the manager emits.
type EventType int

const (
	EventDeviceAdded EventType = iota
	EventDeviceRemoved
	EventDeviceEnabled
	EventDeviceDisabled
	EventDevicePaused
	EventConnectionAttempt
	EventConnectionSuccess
	EventConnectionFailed
	EventConnectionTimeout
	EventConnectionError
	EventConnectionStale
	EventManagerError
	EventStabilityReport
)

func (t EventType) String() string {
	switch t {
	case EventDeviceAdded:
		return "device_added"
	case EventDeviceRemoved:
		return "device_removed"
	case EventDeviceEnabled:
		return "device_enabled"
	case EventDeviceDisabled:
		return "device_disabled"
	case EventDevicePaused:
		return "device_paused"
	case EventConnectionAttempt:
		return "connection_attempt"
	case EventConnectionSuccess:
		return "connection_success"
	case EventConnectionFailed:
		return "connection_failed"
	case EventConnectionTimeout:
		return "connection_timeout"
	case EventConnectionError:
		return "connection_error"
	case EventConnectionStale:
		return "connection_stale"
	case EventManagerError:
		return "manager_error"
	case EventStabilityReport:
		return "stability_report"
	default:
		return "unknown"
	}
}

// Event is published to every subscriber on every state transition and
// periodic report.
type Event struct {
	Address string
	Type    EventType
	Data    map[string]interface{}
}

// Subscriber receives every Event published by a Manager.
type Subscriber func(Event)

// eventBus fans Events out to subscribers. A panicking subscriber is
// caught, logged, and isolated — it never poisons delivery to the others
// or to future events.
type eventBus struct {
	mu          sync.RWMutex
	subscribers []Subscriber
	log         *logrus.Logger
}

func newEventBus(log *logrus.Logger) *eventBus {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &eventBus{log: log}
}

func (b *eventBus) subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, s)
}

func (b *eventBus) publish(evt Event) {
	b.mu.RLock()
	subs := append([]Subscriber{}, b.subscribers...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(s, evt)
	}
}

func (b *eventBus) deliver(s Subscriber, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{
				"address": evt.Address,
				"event":   evt.Type.String(),
				"panic":   r,
			}).Error("subscriber fault")
		}
	}()
	s(evt)
}
