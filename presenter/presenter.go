// Package presenter renders link and dispatch output. Nothing here draws anything: the
// implementations log, or keep the latest values around for Prometheus.
package presenter

import (
	"github.com/robertof/go-keetronics-client/dispatch"
	"github.com/robertof/go-keetronics-client/link"
)

type Presenter interface {
	link.Observer
	dispatch.Sink
}

// Multi forwards every call to each presenter, in order.
type Multi []Presenter

func (m Multi) OnStateChanged(s link.State) {
	for _, p := range m {
		p.OnStateChanged(s)
	}
}

func (m Multi) OnStatusMessage(text string) {
	for _, p := range m {
		p.OnStatusMessage(text)
	}
}

func (m Multi) OnKeyEvent(k dispatch.KeyInstruction) {
	for _, p := range m {
		p.OnKeyEvent(k)
	}
}

func (m Multi) OnAnimation(a dispatch.Animation) {
	for _, p := range m {
		p.OnAnimation(a)
	}
}

func (m Multi) OnTelemetry(t dispatch.Telemetry) {
	for _, p := range m {
		p.OnTelemetry(t)
	}
}
