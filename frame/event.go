package frame

import (
  "fmt"
  "strconv"
)

type Kind uint8

const (
  KindUnknown Kind = iota
  KindKey
  KindTelemetry
)

func (k Kind) String() string {
  switch k {
  case KindUnknown:
    return "Unknown"
  case KindKey:
    return "Key"
  case KindTelemetry:
    return "Telemetry"
  default:
    panic("unknown frame kind: " + strconv.Itoa(int(k)))
  }
}

// Event is a decoded notification frame. It is one of KeyEvent, TelemetryEvent or UnknownEvent.
type Event interface {
  Kind() Kind
  String() string
}

// KeyEvent is a key press on the device. Key frames may embed readings inline
// ("Key 2 ... Imp: 10.5 V: 3.3 I: 0.02"); those are kept as text, NotAvailable when absent.
type KeyEvent struct {
  Index int
  Raw string

  Impedance string
  Voltage string
  Current string
}

func (KeyEvent) Kind() Kind {
  return KindKey
}

func (e KeyEvent) String() string {
  return fmt.Sprintf("KeyEvent[Index=%d,Imp=%v,V=%v,I=%v]", e.Index, e.Impedance, e.Voltage, e.Current)
}

// Quantity is a numeric reading with the decimal text it was parsed from.
type Quantity struct {
  Text string
  Value float64
}

func (q Quantity) String() string {
  return q.Text
}

// TelemetryEvent is a dedicated "V: a, I: b, R: c" line.
type TelemetryEvent struct {
  Voltage Quantity
  Current Quantity
  Impedance Quantity
}

func (TelemetryEvent) Kind() Kind {
  return KindTelemetry
}

func (e TelemetryEvent) String() string {
  return fmt.Sprintf("TelemetryEvent[V=%v,I=%v,R=%v]", e.Voltage, e.Current, e.Impedance)
}

type UnknownEvent struct {
  Raw string
}

func (UnknownEvent) Kind() Kind {
  return KindUnknown
}

func (e UnknownEvent) String() string {
  return fmt.Sprintf("UnknownEvent[%q]", e.Raw)
}
