package ble

import (
	"reflect"
	"testing"

	ble_mod "github.com/go-ble/ble"
	"github.com/google/uuid"
	"github.com/robertof/go-keetronics-client/device"
	"github.com/robertof/go-keetronics-client/link"
)

func TestToUUID(t *testing.T) {
	cases := map[string]ble_mod.UUID{
		"00002902-0000-1000-8000-00805f9b34fb": ble_mod.UUID16(0x2902),
		"4fafc201-1fb5-459e-8fcc-c5c9c331914b": ble_mod.MustParse("4fafc201-1fb5-459e-8fcc-c5c9c331914b"),
		"12345678-0000-1000-8000-00805f9b34fb": ble_mod.UUID([]byte{0x78, 0x56, 0x34, 0x12}),
	}

	for want, in := range cases {
		got, err := toUUID(in)

		if err != nil {
			t.Fatalf("toUUID(%v) got error: %v", in, err)
		}

		if got.String() != want {
			t.Fatalf("toUUID(%v): got %v, wanted %v", in, got, want)
		}
	}

	if _, err := toUUID(ble_mod.UUID([]byte{1, 2, 3})); err == nil {
		t.Fatalf("toUUID(<3 bytes>): expected error")
	}
}

func TestFromUUID_RoundTrip(t *testing.T) {
	u := uuid.MustParse(device.DefaultCharacteristicUUID)

	if !fromUUID(u).Equal(ble_mod.MustParse(device.DefaultCharacteristicUUID)) {
		t.Fatalf("fromUUID(%v): got %v", u, fromUUID(u))
	}
}

func fakeProfile(withCCCD bool) *Profile {
	char := &ble_mod.Characteristic{
		UUID: ble_mod.MustParse(device.DefaultCharacteristicUUID),
	}

	if withCCCD {
		cccd := &ble_mod.Descriptor{UUID: ble_mod.ClientCharacteristicConfigUUID}
		char.Descriptors = []*ble_mod.Descriptor{cccd}
		char.CCCD = cccd
	}

	return &ble_mod.Profile{
		Services: []*ble_mod.Service{
			{UUID: ble_mod.UUID16(0x1800)},
			{
				UUID:            ble_mod.MustParse(device.DefaultServiceUUID),
				Characteristics: []*ble_mod.Characteristic{char},
			},
		},
	}
}

func TestToLinkProfile(t *testing.T) {
	got := toLinkProfile(fakeProfile(true))

	want := link.Profile{
		Services: []link.Service{
			{UUID: uuid.MustParse("00001800-0000-1000-8000-00805f9b34fb")},
			{
				UUID: uuid.MustParse(device.DefaultServiceUUID),
				Characteristics: []link.Characteristic{
					{
						UUID:        uuid.MustParse(device.DefaultCharacteristicUUID),
						Descriptors: []uuid.UUID{device.CCCDescriptorUUID},
					},
				},
			},
		},
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("toLinkProfile: got %+#v, wanted %+#v", got, want)
	}
}

func TestToLinkProfile_Nil(t *testing.T) {
	if got := toLinkProfile(nil); len(got.Services) != 0 {
		t.Fatalf("toLinkProfile(nil): got %+#v", got)
	}
}

func TestFindCharacteristic(t *testing.T) {
	p := fakeProfile(false)
	svc := uuid.MustParse(device.DefaultServiceUUID)
	char := uuid.MustParse(device.DefaultCharacteristicUUID)

	if c := findCharacteristic(p, svc, char); c == nil || c.CCCD != nil {
		t.Fatalf("findCharacteristic: got %+v", c)
	}

	if c := findCharacteristic(p, char, char); c != nil {
		t.Fatalf("findCharacteristic(wrong service): got %+v", c)
	}

	if c := findCharacteristic(nil, svc, char); c != nil {
		t.Fatalf("findCharacteristic(nil): got %+v", c)
	}
}
