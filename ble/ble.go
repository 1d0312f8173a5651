package ble

import (
  "context"
  "fmt"
  "sync/atomic"

  "github.com/go-ble/ble"
  "github.com/go-ble/ble/linux"
  "github.com/go-ble/ble/linux/hci/cmd"
  "github.com/prometheus/client_golang/prometheus"
  "github.com/rs/zerolog/log"
)

type Characteristic = ble.Characteristic
type Client = ble.Client
type Profile = ble.Profile

type Handle struct {
  dev *linux.Device
  stopped atomic.Bool
}

func RegisterMetrics(reg prometheus.Registerer) {
  reg.MustRegister(
    successfulConnectionsCounter,
    failedConnectionsCounter,
    disconnectsCounter,
    notificationsCounter,
  )
}

func WrapContextWithSigHandler(ctx context.Context, cancel func()) context.Context {
  return ble.WithSigHandler(ctx, cancel)
}

func Init(deviceId int) (*Handle, error) {
  return InitWithConnParams(deviceId, ConnParamsDefault)
}

func InitWithConnParams(deviceId int, connParams ConnParams) (*Handle, error) {
  log.Debug().
    Stringer("ConnParams", &connParams).
    Int("DeviceID", deviceId).
    Msg("Initializing Bluetooth device")

  dev, err := linux.NewDevice(
    ble.OptDeviceID(deviceId),
    ble.OptConnParams(connParams.AdapterOptions()),
  )

  if err != nil {
    return nil, fmt.Errorf("failed to init bluetooth device: %w", err)
  }

  ble.SetDefaultDevice(dev)

  return &Handle{
    dev: dev,
  }, nil
}

// Enabled reports whether the controller is up and answering HCI commands.
func (h *Handle) Enabled() bool {
  if h == nil || h.dev == nil || h.stopped.Load() {
    return false
  }

  var res cmd.ReadBDADDRRP

  if err := h.dev.HCI.Send(&cmd.ReadBDADDR{}, &res); err != nil {
    log.Debug().Err(err).Msg("ble: controller did not answer Read BD_ADDR")
    return false
  }

  if res.Status != 0 {
    log.Debug().Uint8("Status", res.Status).Msg("ble: controller rejected Read BD_ADDR")
    return false
  }

  return true
}

func (h *Handle) Stop() {
  if h.stopped.CompareAndSwap(false, true) {
    h.dev.Stop()
  }
}
