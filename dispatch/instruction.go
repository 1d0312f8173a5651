package dispatch

import (
	"fmt"
	"strconv"
	"time"
)

const (
	// LedCount is the size of the primary LED bank.
	LedCount = 14
	// SplitAt is the number of LEDs in the top group of a split animation.
	SplitAt = 8
	// StepDelay is the delay between two consecutive LEDs lighting up.
	StepDelay = 200 * time.Millisecond

	firstKey = 1
	lastKey  = 4
)

type Color uint8

const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
)

func (c Color) String() string {
	switch c {
	case ColorDefault:
		return "Default"
	case ColorRed:
		return "Red"
	case ColorGreen:
		return "Green"
	default:
		panic("unknown color: " + strconv.Itoa(int(c)))
	}
}

// Animation lights the LED bank one by one, StepDelay apart. LEDs below SplitAt
// take Top, the others Bottom; a solid animation has Top == Bottom.
type Animation struct {
	Top    Color
	Bottom Color
}

// ConnectedAnimation sweeps the LED bank once the device is connected.
var ConnectedAnimation = Animation{Top: ColorGreen, Bottom: ColorGreen}

func (a Animation) Solid() bool {
	return a.Top == a.Bottom
}

// ColorAt returns the color of the i-th LED of the bank.
func (a Animation) ColorAt(i int) Color {
	if i < SplitAt {
		return a.Top
	}

	return a.Bottom
}

func (a Animation) String() string {
	if a.Solid() {
		return fmt.Sprintf("solid(%v)", a.Top)
	}

	return fmt.Sprintf("split(%v/%v)", a.Top, a.Bottom)
}

// KeyInstruction tells the presentation layer how to react to a key press. Steps are
// applied in order: reset the LED bank, reset ResetSecondary, activate Secondary, animate.
type KeyInstruction struct {
	Index   int
	Message string

	ResetLeds      bool
	ResetSecondary []int
	Secondary      int
	Animation      Animation
}

func (k KeyInstruction) String() string {
	return fmt.Sprintf("KeyInstruction[Index=%d,Animation=%v,Secondary=%d,ResetSecondary=%v]",
		k.Index, k.Animation, k.Secondary, k.ResetSecondary)
}

type TelemetrySource uint8

const (
	// SourceLine is a dedicated "V: a, I: b, R: c" frame.
	SourceLine TelemetrySource = iota
	// SourceKey are the readings embedded in a key frame.
	SourceKey
)

func (s TelemetrySource) String() string {
	switch s {
	case SourceLine:
		return "line"
	case SourceKey:
		return "key"
	default:
		panic("unknown telemetry source: " + strconv.Itoa(int(s)))
	}
}

// Telemetry carries readings as the device sent them.
type Telemetry struct {
	Source    TelemetrySource
	Voltage   string
	Current   string
	Impedance string
}

func (t Telemetry) String() string {
	return fmt.Sprintf("Telemetry[Source=%v,V=%v,I=%v,R=%v]", t.Source, t.Voltage, t.Current, t.Impedance)
}
