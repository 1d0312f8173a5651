package dispatch

import (
	"github.com/robertof/go-keetronics-client/frame"
	"github.com/robertof/go-keetronics-client/utils"
	"github.com/rs/zerolog/log"
)

// Sink receives dispatched instructions. It is implemented by the presentation layer.
type Sink interface {
	OnKeyEvent(KeyInstruction)
	OnTelemetry(Telemetry)
	OnAnimation(Animation)
}

type Dispatcher struct {
	sink Sink
}

func New(sink Sink) *Dispatcher {
	return &Dispatcher{sink: sink}
}

func (d *Dispatcher) Dispatch(ev frame.Event) {
	switch ev := ev.(type) {
	case frame.KeyEvent:
		instr, ok := keyInstruction(ev)

		if !ok {
			log.Warn().Int("Index", ev.Index).Msg("dispatch: key index out of range, ignoring")
			return
		}

		log.Trace().Stringer("Instruction", instr).Msg("dispatch: key event")

		d.sink.OnKeyEvent(instr)
		d.sink.OnTelemetry(Telemetry{
			Source:    SourceKey,
			Voltage:   ev.Voltage,
			Current:   ev.Current,
			Impedance: ev.Impedance,
		})
	case frame.TelemetryEvent:
		d.sink.OnTelemetry(Telemetry{
			Source:    SourceLine,
			Voltage:   ev.Voltage.Text,
			Current:   ev.Current.Text,
			Impedance: ev.Impedance.Text,
		})
	case frame.UnknownEvent:
		log.Debug().Str("Frame", ev.Raw).Msg("dispatch: ignoring unknown frame")
	default:
		log.Debug().Interface("Event", ev).Msg("dispatch: ignoring unsupported event")
	}
}

var keyAnimations = map[int]Animation{
	1: {Top: ColorRed, Bottom: ColorRed},
	2: {Top: ColorGreen, Bottom: ColorGreen},
	3: {Top: ColorRed, Bottom: ColorGreen},
	4: {Top: ColorGreen, Bottom: ColorRed},
}

func keyInstruction(ev frame.KeyEvent) (KeyInstruction, bool) {
	animation, ok := keyAnimations[ev.Index]

	if !ok {
		return KeyInstruction{}, false
	}

	instr := KeyInstruction{
		Index:     ev.Index,
		Message:   ev.Raw,
		ResetLeds: true,
		Secondary: ev.Index,
		Animation: animation,
	}

	// key 1 leaves the other secondary indicators untouched.
	if ev.Index != firstKey {
		instr.ResetSecondary = utils.RangeExcept(firstKey, lastKey, ev.Index)
	}

	return instr, true
}

// Connected plays ConnectedAnimation on the sink.
func (d *Dispatcher) Connected() {
	d.sink.OnAnimation(ConnectedAnimation)
}
