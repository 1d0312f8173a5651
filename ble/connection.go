package ble

import (
	"context"
	"net"

	"github.com/go-ble/ble"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	successfulConnectionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "keetronics_ble_successful_connections_total",
	})
	failedConnectionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "keetronics_ble_failed_connections_total",
	})
	disconnectsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "keetronics_ble_disconnections_total",
	})
	notificationsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "keetronics_ble_notifications_total",
	})
)

// Connect dials addr. The caller owns the returned client and must cancel it.
func (h *Handle) Connect(ctx context.Context, addr net.HardwareAddr) (Client, error) {
	c, err := ble.Dial(ctx, addr)

	if err != nil {
		failedConnectionsCounter.Inc()
		return nil, err
	}

	successfulConnectionsCounter.Inc()
	log.Debug().Stringer("Addr", addr).Msg("ble: successfully opened new connection to device")

	return c, nil
}

// watchDisconnect calls onDisconnect once the connection breaks, for whatever reason.
func watchDisconnect(c Client, addr net.HardwareAddr, onDisconnect func()) {
	go func() {
		<-c.Disconnected()

		disconnectsCounter.Inc()
		log.Debug().Stringer("Addr", addr).Msg("ble: connection with device closed")

		onDisconnect()
	}()
}

func release(c Client) {
	if c == nil {
		return
	}

	if err := c.CancelConnection(); err != nil {
		log.Debug().Err(err).Msg("ble: failed to cancel connection, assuming it is already gone")
	}
}

// awaitDisconnected blocks until c is gone. CancelConnection only requests the
// disconnection, the controller confirms it later.
func awaitDisconnected(ctx context.Context, c Client) error {
	if c == nil {
		return nil
	}

	select {
	case <-c.Disconnected():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
