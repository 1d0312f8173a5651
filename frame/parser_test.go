package frame_test

import (
  "reflect"
  "strings"
  "sync"
  "testing"

  "github.com/robertof/go-keetronics-client/frame"
)

func TestParse_KeyFrames(t *testing.T) {
  for idx, raw := range map[int]string{
    1: "Key 1",
    2: "Key 2 pressed",
    3: "Key 3\r\n",
    4: "Key 4 Imp: 10.5 V: 3.3 I: 0.02",
  } {
    got := frame.Parse(raw)

    ev, ok := got.(frame.KeyEvent)

    if !ok {
      t.Fatalf("Parse(%q): got %v, wanted a KeyEvent", raw, got)
    }

    if ev.Index != idx || ev.Raw != raw {
      t.Fatalf("Parse(%q): got %+#v, wanted index %d", raw, ev, idx)
    }
  }
}

func TestParse_KeyFrameWithInlineTelemetry(t *testing.T) {
  raw := "Key 2 Imp: 10.5 V: 3.3 I: 0.02"
  got := frame.Parse(raw)

  want := frame.KeyEvent{
    Index:     2,
    Raw:       raw,
    Impedance: "10.5",
    Voltage:   "3.3",
    Current:   "0.02",
  }

  if !reflect.DeepEqual(got, want) {
    t.Fatalf("Parse(%q): got %+#v, wanted %+#v", raw, got, want)
  }
}

func TestParse_KeyFrameWithoutTelemetry(t *testing.T) {
  got := frame.Parse("Key 1")

  want := frame.KeyEvent{
    Index:     1,
    Raw:       "Key 1",
    Impedance: frame.NotAvailable,
    Voltage:   frame.NotAvailable,
    Current:   frame.NotAvailable,
  }

  if !reflect.DeepEqual(got, want) {
    t.Fatalf("Parse(\"Key 1\"): got %+#v, wanted %+#v", got, want)
  }
}

func TestParse_TelemetryLine(t *testing.T) {
  cases := map[string]frame.TelemetryEvent{
    "V: 3.3, I: 0.02, R: 165": {
      Voltage:   frame.Quantity{Text: "3.3", Value: 3.3},
      Current:   frame.Quantity{Text: "0.02", Value: 0.02},
      Impedance: frame.Quantity{Text: "165", Value: 165},
    },
    "V:12.00,I:-1.5,R:+0.75\r\n": {
      Voltage:   frame.Quantity{Text: "12.00", Value: 12},
      Current:   frame.Quantity{Text: "-1.5", Value: -1.5},
      Impedance: frame.Quantity{Text: "+0.75", Value: 0.75},
    },
    "V: 1, I: 2, R: 3, T: 25": {
      Voltage:   frame.Quantity{Text: "1", Value: 1},
      Current:   frame.Quantity{Text: "2", Value: 2},
      Impedance: frame.Quantity{Text: "3", Value: 3},
    },
    "V: 1, I: 2, R: 3 ohm": {
      Voltage:   frame.Quantity{Text: "1", Value: 1},
      Current:   frame.Quantity{Text: "2", Value: 2},
      Impedance: frame.Quantity{Text: "3", Value: 3},
    },
    "  V :  .5 ,  I : 7 , R : 1.": {
      Voltage:   frame.Quantity{Text: ".5", Value: 0.5},
      Current:   frame.Quantity{Text: "7", Value: 7},
      Impedance: frame.Quantity{Text: "1.", Value: 1},
    },
  }

  for raw, want := range cases {
    got := frame.Parse(raw)

    if !reflect.DeepEqual(got, want) {
      t.Fatalf("Parse(%q): got %+#v, wanted %+#v", raw, got, want)
    }
  }
}

func TestParse_Unknown(t *testing.T) {
  for _, raw := range []string{
    "",
    "Key",
    "Key ",
    "Key 0",
    "Key 5",
    "key 1",
    "Key x",
    "hello",
    "V: 3.3",
    "V: 3.3, I: 0.02",
    "V: abc, I: 1, R: 2",
    "I: 1, V: 2, R: 3",
    "status V: 1, I: 2, R: 3",
    "V: 1, I: 2, R: 3.4.5",
    "V: 1, I: 2, R: 3abc",
    "V: 1, I: 2, R: 3-7",
    "\x00\xff\xfe",
  } {
    got := frame.Parse(raw)

    if !reflect.DeepEqual(got, frame.UnknownEvent{Raw: raw}) {
      t.Fatalf("Parse(%q): got %+#v, wanted UnknownEvent", raw, got)
    }
  }
}

func TestParse_NumericOverflowDegradesToUnknown(t *testing.T) {
  huge := "1" + strings.Repeat("0", 400)
  raw := "V: " + huge + ", I: 1, R: 2"

  got := frame.Parse(raw)

  if !reflect.DeepEqual(got, frame.UnknownEvent{Raw: raw}) {
    t.Fatalf("Parse(<overflowing voltage>): got %v, wanted UnknownEvent", got)
  }
}

func TestParse_ConcurrentUse(t *testing.T) {
  var wg sync.WaitGroup

  for i := 0; i < 8; i += 1 {
    wg.Add(1)

    go func() {
      defer wg.Done()

      for j := 0; j < 200; j += 1 {
        if frame.Parse("V: 1, I: 2, R: 3").Kind() != frame.KindTelemetry {
          t.Errorf("concurrent Parse returned wrong kind")
          return
        }

        if frame.Parse("Key 3 Imp: 1").Kind() != frame.KindKey {
          t.Errorf("concurrent Parse returned wrong kind")
          return
        }
      }
    }()
  }

  wg.Wait()
}
