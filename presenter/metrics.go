package presenter

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robertof/go-keetronics-client/dispatch"
	"github.com/robertof/go-keetronics-client/link"
	"github.com/robertof/go-keetronics-client/metrics"
)

// Metrics keeps the latest reading per source and the key press counts. Nothing older
// than the last reading is retained.
type Metrics struct {
	device string

	mu         sync.Mutex
	readings   map[dispatch.TelemetrySource]dispatch.Telemetry
	keyPresses map[int]uint64
	updated    time.Time
}

func NewMetrics(device string) *Metrics {
	return &Metrics{
		device:     device,
		readings:   make(map[dispatch.TelemetrySource]dispatch.Telemetry),
		keyPresses: make(map[int]uint64),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) {
	metrics.RegisterCollector(m.Latest, reg)
}

func (m *Metrics) OnStateChanged(link.State) {}

func (m *Metrics) OnStatusMessage(string) {}

func (m *Metrics) OnAnimation(dispatch.Animation) {}

func (m *Metrics) OnKeyEvent(k dispatch.KeyInstruction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.keyPresses[k.Index] += 1
	m.updated = time.Now()
}

func (m *Metrics) OnTelemetry(t dispatch.Telemetry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.readings[t.Source] = t
	m.updated = time.Now()
}

// Latest returns a copy of the current values and when they were last updated.
func (m *Metrics) Latest() (metrics.Snapshot, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := metrics.Snapshot{
		Device:     m.device,
		Readings:   make(map[string]metrics.Reading, len(m.readings)),
		KeyPresses: make(map[int]uint64, len(m.keyPresses)),
	}

	for source, t := range m.readings {
		s.Readings[source.String()] = metrics.Reading{
			Voltage:   t.Voltage,
			Current:   t.Current,
			Impedance: t.Impedance,
		}
	}

	for k, n := range m.keyPresses {
		s.KeyPresses[k] = n
	}

	return s, m.updated
}
