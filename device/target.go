package device

import (
  "fmt"
  "net"
  "strings"

  "github.com/google/uuid"
)

// Identifiers flashed into the Keetronics ESP32 firmware.
const (
  DefaultAddress = "08:B6:1F:28:B4:6E"
  DefaultServiceUUID = "4fafc201-1fb5-459e-8fcc-c5c9c331914b"
  DefaultCharacteristicUUID = "beb5483e-36e1-4688-b7f5-ea07361b26a8"
)

// CCCDescriptorUUID is the standard Client Characteristic Configuration descriptor (0x2902).
var CCCDescriptorUUID = uuid.MustParse("00002902-0000-1000-8000-00805f9b34fb")

// Target is the single peripheral this client talks to. It is immutable once built.
type Target struct {
  name string
  addr net.HardwareAddr
  service uuid.UUID
  characteristic uuid.UUID
}

func FromDeviceSpec(spec DeviceSpec) (*Target, error) {
  t := Target{}

  addr := spec.Addr()

  if addr == "" {
    addr = DefaultAddress
  }

  if name := spec.Name(); name != "" {
    t.name = name
  } else {
    t.name = "keetronics-" + strings.ToLower(strings.ReplaceAll(addr, ":", ""))
  }

  hwAddr, err := net.ParseMAC(addr)
  if err != nil {
    return nil, fmt.Errorf("invalid addr: %w", err)
  }

  if len(hwAddr) != 6 {
    return nil, fmt.Errorf("invalid addr %q: not a 6 byte Bluetooth address", addr)
  }

  t.addr = hwAddr

  if t.service, err = parseUUIDOrDefault(spec.Service(), DefaultServiceUUID); err != nil {
    return nil, fmt.Errorf("invalid service: %w", err)
  }

  if t.characteristic, err = parseUUIDOrDefault(spec.Characteristic(), DefaultCharacteristicUUID); err != nil {
    return nil, fmt.Errorf("invalid characteristic: %w", err)
  }

  return &t, nil
}

// MustDefault returns the target with the factory firmware identifiers.
func MustDefault() *Target {
  t, err := FromDeviceSpec(DeviceSpec{})

  if err != nil {
    panic("default device spec is invalid: " + err.Error())
  }

  return t
}

func parseUUIDOrDefault(s, def string) (uuid.UUID, error) {
  if s == "" {
    s = def
  }

  return uuid.Parse(s)
}

func (t *Target) Name() string {
  return t.name
}

func (t *Target) Addr() net.HardwareAddr {
  return t.addr
}

func (t *Target) Service() uuid.UUID {
  return t.service
}

func (t *Target) Characteristic() uuid.UUID {
  return t.characteristic
}

func (t *Target) String() string {
  return fmt.Sprintf("keetronics[name=%q, addr=%v]", t.name, t.addr.String())
}
