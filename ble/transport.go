package ble

import (
	"context"
	"net"
	"sync"

	"github.com/go-ble/ble"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robertof/go-keetronics-client/link"
	"github.com/robertof/go-keetronics-client/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
)

var errNotConnected = errors.New("ble: not connected")

// Transport implements link.Transport on top of go-ble. Blocking go-ble calls run on
// their own goroutines and report back through the attempt's callbacks.
type Transport struct {
	h    *Handle
	dial func(ctx context.Context, addr net.HardwareAddr) (Client, error)

	// held for the whole release-wait-dial sequence of a Connect.
	dialMu sync.Mutex

	mu      sync.Mutex
	addr    net.HardwareAddr
	client  Client
	profile *Profile
	cb      link.Callbacks
	// released but possibly still up; the next dial waits for all of them.
	releasing []Client
}

var _ link.Transport = (*Transport)(nil)

func NewTransport(h *Handle) *Transport {
	return &Transport{h: h, dial: h.Connect}
}

func (t *Transport) IsEnabled() bool {
	return t.h.Enabled()
}

func (t *Transport) Connect(ctx context.Context, addr net.HardwareAddr, cb link.Callbacks) {
	t.mu.Lock()
	t.retireLocked()
	t.addr = addr
	t.cb = cb
	t.mu.Unlock()

	go func() {
		t.dialMu.Lock()
		defer t.dialMu.Unlock()

		t.mu.Lock()

		if t.cb != cb {
			// superseded before we got to dial, the newer attempt waits for the old links.
			t.mu.Unlock()
			return
		}

		pending := t.releasing
		t.releasing = nil
		t.mu.Unlock()

		// the previous connections must be gone before dialing again.
		for i, old := range pending {
			release(old)

			if err := awaitDisconnected(ctx, old); err != nil {
				t.mu.Lock()
				t.releasing = append(t.releasing, pending[i:]...)
				t.mu.Unlock()

				cb.ConnectFailed(errors.Wrap(err, "previous connection did not close"))
				return
			}
		}

		log.Trace().Stringer("Addr", addr).Msg("ble: dialing device")

		c, err := t.dial(ctx, addr)

		if err != nil {
			cb.ConnectFailed(errors.Wrapf(err, "failed to connect to %v", addr))
			return
		}

		t.mu.Lock()

		if t.cb != cb {
			// superseded while dialing.
			t.releasing = append(t.releasing, c)
			t.mu.Unlock()
			release(c)
			return
		}

		t.client = c
		t.mu.Unlock()

		watchDisconnect(c, addr, cb.Disconnected)
		cb.Connected()
	}()
}

func (t *Transport) DiscoverServices() {
	client, cb := t.current()

	if cb == nil {
		log.Warn().Msg("ble: service discovery requested without a connection attempt")
		return
	}

	go func() {
		if client == nil {
			cb.ServicesDiscovered(link.Profile{}, errNotConnected)
			return
		}

		p, err := client.DiscoverProfile(true)

		if err != nil {
			cb.ServicesDiscovered(link.Profile{}, errors.Wrap(err, "cannot discover profile for device"))
			return
		}

		t.mu.Lock()
		if t.client == client {
			t.profile = p
		}
		t.mu.Unlock()

		logProfile(p)

		cb.ServicesDiscovered(toLinkProfile(p), nil)
	}()
}

func (t *Transport) EnableNotifications(service, characteristic uuid.UUID) {
	t.mu.Lock()
	client, cb, p := t.client, t.cb, t.profile
	t.mu.Unlock()

	if cb == nil {
		log.Warn().Msg("ble: notifications requested without a connection attempt")
		return
	}

	go func() {
		if client == nil {
			cb.NotificationsEnabled(errNotConnected)
			return
		}

		c := findCharacteristic(p, service, characteristic)

		if c == nil {
			cb.NotificationsEnabled(errors.Wrapf(link.ErrCharacteristicNotFound,
				"service %v, characteristic %v", service, characteristic))
			return
		}

		if c.CCCD == nil {
			cb.NotificationsEnabled(errors.Wrapf(link.ErrDescriptorNotFound,
				"characteristic %v", characteristic))
			return
		}

		err := client.Subscribe(c, false, func(payload []byte) {
			notificationsCounter.Inc()
			cb.Notification(payload)
		})

		if err != nil {
			err = errors.Wrapf(err, "failed to subscribe to characteristic %v", characteristic)
		}

		cb.NotificationsEnabled(err)
	}()
}

func (t *Transport) Disconnect() {
	t.mu.Lock()
	prev := t.retireLocked()
	t.mu.Unlock()

	if prev != nil {
		go release(prev)
	}
}

func (t *Transport) current() (Client, link.Callbacks) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.client, t.cb
}

// retireLocked forgets the current connection and queues it for the next dial to
// wait on. It returns the retired client, if any.
func (t *Transport) retireLocked() Client {
	prev := t.client

	t.client = nil
	t.profile = nil
	t.cb = nil

	if prev != nil {
		t.releasing = append(t.releasing, prev)
	}

	return prev
}

func logProfile(p *Profile) {
	services := make(map[string]bool)
	var characteristics []ble.UUID

	for _, svc := range p.Services {
		services[svc.UUID.String()] = true

		for _, c := range svc.Characteristics {
			characteristics = append(characteristics, c.UUID)
		}
	}

	log.Debug().
		Strs("Services", maps.Keys(services)).
		Array("Characteristics", utils.ToZeroLogArray(characteristics)).
		Msg("ble: discovered device profile")
}
