package link

import (
	"context"
	"net"

	"github.com/google/uuid"
)

// Transport is the platform BLE stack. Every call returns immediately; outcomes are
// reported later through the Callbacks given to Connect, from any goroutine.
type Transport interface {
	IsEnabled() bool
	// Connect releases any previous connection and dials addr.
	Connect(ctx context.Context, addr net.HardwareAddr, cb Callbacks)
	DiscoverServices()
	EnableNotifications(service, characteristic uuid.UUID)
	Disconnect()
}

// Callbacks are bound to a single connection attempt.
type Callbacks interface {
	Connected()
	ConnectFailed(err error)
	ServicesDiscovered(p Profile, err error)
	NotificationsEnabled(err error)
	Disconnected()
	Notification(payload []byte)
}

// Profile is the GATT layout reported by service discovery.
type Profile struct {
	Services []Service
}

type Service struct {
	UUID            uuid.UUID
	Characteristics []Characteristic
}

type Characteristic struct {
	UUID        uuid.UUID
	Descriptors []uuid.UUID
}

// Find returns the characteristic under the given service.
func (p Profile) Find(service, characteristic uuid.UUID) (Characteristic, bool) {
	for _, svc := range p.Services {
		if svc.UUID != service {
			continue
		}

		for _, c := range svc.Characteristics {
			if c.UUID == characteristic {
				return c, true
			}
		}
	}

	return Characteristic{}, false
}

func (c Characteristic) HasDescriptor(d uuid.UUID) bool {
	for _, desc := range c.Descriptors {
		if desc == d {
			return true
		}
	}

	return false
}
