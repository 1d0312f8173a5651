package frame

import (
  "regexp"
)

// NotAvailable is shown in place of a reading missing from a frame.
const NotAvailable = "N/A"

// read-only after init, safe for concurrent use.
var fieldPatterns = map[string]*regexp.Regexp{
  LabelImpedance: fieldPattern(LabelImpedance),
  LabelVoltage: fieldPattern(LabelVoltage),
  LabelCurrent: fieldPattern(LabelCurrent),
}

func fieldPattern(label string) *regexp.Regexp {
  return regexp.MustCompile(regexp.QuoteMeta(label) + `:\s*(-?\d*\.?\d+)`)
}

// ExtractField returns the number following the first "<label>:" in raw, verbatim.
func ExtractField(raw, label string) (string, bool) {
  re, ok := fieldPatterns[label]

  if !ok {
    re = fieldPattern(label)
  }

  m := re.FindStringSubmatch(raw)

  if m == nil {
    return "", false
  }

  return m[1], true
}

func FieldOrNotAvailable(raw, label string) string {
  if v, ok := ExtractField(raw, label); ok {
    return v
  }

  return NotAvailable
}
