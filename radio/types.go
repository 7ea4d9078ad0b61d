// Package radio defines the narrow contract the core consumes from a BLE
// radio binding — a host controller or an external sniffer dongle — and
// the packet/event types that contract produces. The radio binding itself
// (HCI, a serial sniffer transport) lives outside this module; radio.Fake
// is the in-memory stand-in used by this module's own tests.
package radio

import (
	"context"
	"time"
)

// Source identifies which physical interface delivered a RawPacket.
type Source int

const (
	SourceUnknown Source = iota
	SourceHostRadio
	SourceSnifferRadio
)

func (s Source) String() string {
	switch s {
	case SourceHostRadio:
		return "HostRadio"
	case SourceSnifferRadio:
		return "SnifferRadio"
	default:
		return "Unknown"
	}
}

// Class classifies a RawPacket for protocol-detection and inspection
// purposes, independent of its payload contents.
type Class int

const (
	ClassUnknown Class = iota
	ClassAdvertisement
	ClassData
	ClassConnection
	ClassDisconnection
)

func (c Class) String() string {
	switch c {
	case ClassAdvertisement:
		return "Advertisement"
	case ClassData:
		return "Data"
	case ClassConnection:
		return "Connection"
	case ClassDisconnection:
		return "Disconnection"
	default:
		return "Unknown"
	}
}

// RawPacket is the immutable unit C6 produces and C4 consumes. Address is
// a 48-bit BLE device address in "AA:BB:CC:DD:EE:FF" form.
type RawPacket struct {
	Timestamp  time.Time
	Source     Source
	Address    string
	RSSI       int
	Payload    []byte
	Class      Class
	Attributes map[string]interface{}
}

// Device is a discovered BLE peripheral as reported by get_devices().
type Device struct {
	Address  string
	Name     string
	RSSI     int
	Services []string
}

// Interface is the capability set C5/C6 require of a radio binding. Both
// push (RegisterCallback) and pull (PacketStream) delivery are part of the
// contract; an implementation need only support one.
type Interface interface {
	Initialize(ctx context.Context) error
	StartScanning(ctx context.Context, passive bool) error
	StopScanning(ctx context.Context) error
	Connect(ctx context.Context, address string) (bool, error)
	Disconnect(ctx context.Context, address string) error
	GetDevices(ctx context.Context) ([]Device, error)

	// PacketStream returns a channel of RawPackets, ordered per source,
	// that stays open until ctx is canceled. Restartable by calling again
	// after a prior stream closed.
	PacketStream(ctx context.Context) (<-chan RawPacket, error)

	// RegisterCallback subscribes fn for push delivery of every RawPacket.
	// It returns an unregister function.
	RegisterCallback(fn func(RawPacket)) (unregister func())
}
