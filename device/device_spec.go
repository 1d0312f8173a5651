package device

import (
  "strings"

  "github.com/rs/zerolog/log"
)

// DeviceSpec is the `key=value,key=value` description of the target peripheral.
type DeviceSpec map[string]string

const (
  DeviceSpecFieldName = "name"
  DeviceSpecFieldAddress = "addr"
  DeviceSpecFieldService = "service"
  DeviceSpecFieldCharacteristic = "characteristic"
)

func NewDeviceSpec(s string) DeviceSpec {
  spec := DeviceSpec{}
  entries := strings.Split(s, ",")

  for _, entry := range entries {
    if strings.TrimSpace(entry) == "" {
      continue
    }

    parts := strings.SplitN(entry, "=", 2)

    if len(parts) != 2 {
      log.Warn().Str("Entry", entry).Msg("Skipping invalid device spec entry")
      continue
    }

    spec[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
  }

  return spec
}

func (ds DeviceSpec) Name() string {
  return ds[DeviceSpecFieldName]
}

func (ds DeviceSpec) Addr() string {
  return ds[DeviceSpecFieldAddress]
}

func (ds DeviceSpec) Service() string {
  return ds[DeviceSpecFieldService]
}

func (ds DeviceSpec) Characteristic() string {
  return ds[DeviceSpecFieldCharacteristic]
}
