package ble

import (
	"fmt"

	"github.com/go-ble/ble"
	"github.com/google/uuid"
	"github.com/robertof/go-keetronics-client/link"
	"github.com/robertof/go-keetronics-client/utils"
)

// 16 and 32-bit UUIDs are aliases into the Bluetooth Base UUID.
var bluetoothBaseUUID = uuid.MustParse("00000000-0000-1000-8000-00805f9b34fb")

// toUUID converts go-ble's little-endian UUIDs of any width to their 128-bit form.
func toUUID(u ble.UUID) (uuid.UUID, error) {
	be := utils.Reverse([]byte(u))

	switch len(be) {
	case 2:
		out := bluetoothBaseUUID
		copy(out[2:4], be)
		return out, nil
	case 4:
		out := bluetoothBaseUUID
		copy(out[0:4], be)
		return out, nil
	case 16:
		return uuid.FromBytes(be)
	default:
		return uuid.Nil, fmt.Errorf("invalid UUID length %d", len(u))
	}
}

func fromUUID(u uuid.UUID) ble.UUID {
	return ble.UUID(utils.Reverse(u[:]))
}

func sameUUID(a ble.UUID, b uuid.UUID) bool {
	u, err := toUUID(a)
	return err == nil && u == b
}

// toLinkProfile flattens a discovered go-ble profile. Attributes with malformed UUIDs
// are skipped.
func toLinkProfile(p *Profile) link.Profile {
	var out link.Profile

	if p == nil {
		return out
	}

	for _, svc := range p.Services {
		svcUUID, err := toUUID(svc.UUID)

		if err != nil {
			continue
		}

		s := link.Service{UUID: svcUUID}

		for _, c := range svc.Characteristics {
			charUUID, err := toUUID(c.UUID)

			if err != nil {
				continue
			}

			lc := link.Characteristic{UUID: charUUID}

			for _, d := range c.Descriptors {
				if du, err := toUUID(d.UUID); err == nil {
					lc.Descriptors = append(lc.Descriptors, du)
				}
			}

			if c.CCCD != nil {
				if du, err := toUUID(c.CCCD.UUID); err == nil && !lc.HasDescriptor(du) {
					lc.Descriptors = append(lc.Descriptors, du)
				}
			}

			s.Characteristics = append(s.Characteristics, lc)
		}

		out.Services = append(out.Services, s)
	}

	return out
}

func findCharacteristic(p *Profile, service, characteristic uuid.UUID) *Characteristic {
	if p == nil {
		return nil
	}

	for _, svc := range p.Services {
		if !sameUUID(svc.UUID, service) {
			continue
		}

		for _, c := range svc.Characteristics {
			if sameUUID(c.UUID, characteristic) {
				return c
			}
		}
	}

	return nil
}
