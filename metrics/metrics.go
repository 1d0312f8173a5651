package metrics

import (
  "strconv"
  "time"

  "github.com/prometheus/client_golang/prometheus"
)

var (
  descVoltage = prometheus.NewDesc(
    "sensor_voltage",
    "Last voltage reported by the device.",
    []string{"name", "source"},
    nil,
  )

  descCurrent = prometheus.NewDesc(
    "sensor_current",
    "Last current reported by the device. Telemetry lines report mA, key frames A.",
    []string{"name", "source"},
    nil,
  )

  descImpedance = prometheus.NewDesc(
    "sensor_impedance_ohms",
    "Last impedance reported by the device.",
    []string{"name", "source"},
    nil,
  )

  descKeyPresses = prometheus.NewDesc(
    "sensor_key_presses_total",
    "Key presses reported by the device since startup.",
    []string{"name", "key"},
    nil,
  )
)

// Reading holds values as the device sent them. Values that don't parse as numbers
// (e.g. "N/A") are not exported.
type Reading struct {
  Voltage string
  Current string
  Impedance string
}

// Snapshot is the latest state known for the device. Readings are keyed by source.
type Snapshot struct {
  Device string
  Readings map[string]Reading
  KeyPresses map[int]uint64
}

type CollectFunc func() (Snapshot, time.Time)

type collector struct {
  CollectFunc
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
  ch <- descVoltage
  ch <- descCurrent
  ch <- descImpedance
  ch <- descKeyPresses
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
  out, ts := c.CollectFunc()

  // nothing received from the device yet.
  if ts.IsZero() {
    return
  }

  for source, reading := range out.Readings {
    for desc, text := range map[*prometheus.Desc]string{
      descVoltage: reading.Voltage,
      descCurrent: reading.Current,
      descImpedance: reading.Impedance,
    } {
      v, err := strconv.ParseFloat(text, 64)

      if err != nil {
        continue
      }

      m := prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, out.Device, source)
      ch <- prometheus.NewMetricWithTimestamp(ts, m)
    }
  }

  for key, count := range out.KeyPresses {
    ch <- prometheus.MustNewConstMetric(
      descKeyPresses,
      prometheus.CounterValue,
      float64(count),
      out.Device,
      strconv.Itoa(key),
    )
  }
}

func RegisterCollector(f CollectFunc, reg prometheus.Registerer) {
  c := &collector{f}

  reg.MustRegister(c)
}
