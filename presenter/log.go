package presenter

import (
	"github.com/robertof/go-keetronics-client/dispatch"
	"github.com/robertof/go-keetronics-client/link"
	"github.com/rs/zerolog"
)

// Log writes everything the device does to a zerolog logger.
type Log struct {
	logger zerolog.Logger
}

func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) OnStateChanged(s link.State) {
	l.logger.Info().Stringer("State", s).Msg("Connection state changed")
}

func (l *Log) OnStatusMessage(text string) {
	l.logger.Info().Msg(text)
}

func (l *Log) OnKeyEvent(k dispatch.KeyInstruction) {
	l.logger.Info().
		Int("Key", k.Index).
		Str("Message", k.Message).
		Stringer("Animation", k.Animation).
		Int("Indicator", k.Secondary).
		Ints("ResetIndicators", k.ResetSecondary).
		Msg("Key pressed")
}

func (l *Log) OnAnimation(a dispatch.Animation) {
	l.logger.Info().Stringer("Animation", a).Msg("Playing LED animation")
}

func (l *Log) OnTelemetry(t dispatch.Telemetry) {
	currentUnit := "mA"

	if t.Source == dispatch.SourceKey {
		currentUnit = "A"
	}

	l.logger.Info().
		Stringer("Source", t.Source).
		Str("Voltage", t.Voltage+" V").
		Str("Current", t.Current+" "+currentUnit).
		Str("Impedance", t.Impedance+" Ω").
		Msg("Telemetry")
}
