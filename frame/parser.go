package frame

import (
  "errors"
  "regexp"
  "strconv"
  "strings"
  "unicode"
  "unicode/utf8"

  pkgerrors "github.com/pkg/errors"
  "github.com/rs/zerolog/log"
)

const (
  keyPrefix = "Key "

  LabelImpedance = "Imp"
  LabelVoltage = "V"
  LabelCurrent = "I"
)

var ErrParseFailure = errors.New("malformed frame")

const number = `([+-]?(?:\d+\.?\d*|\.\d+))`

var telemetryLine = regexp.MustCompile(
  `^\s*V\s*:\s*` + number + `\s*,\s*I\s*:\s*` + number + `\s*,\s*R\s*:\s*` + number)

// Parse decodes a single notification payload. It never fails: anything that is not a
// well-formed key or telemetry frame comes back as an UnknownEvent carrying raw verbatim.
func Parse(raw string) Event {
  if idx, ok := keyIndex(raw); ok {
    return KeyEvent{
      Index: idx,
      Raw: raw,
      Impedance: FieldOrNotAvailable(raw, LabelImpedance),
      Voltage: FieldOrNotAvailable(raw, LabelVoltage),
      Current: FieldOrNotAvailable(raw, LabelCurrent),
    }
  }

  if ev, err := parseTelemetry(raw); err == nil {
    return ev
  } else if !errors.Is(err, errNoMatch) {
    log.Trace().Err(err).Str("Frame", raw).Msg("frame: dropping malformed telemetry line")
  }

  return UnknownEvent{Raw: raw}
}

func keyIndex(raw string) (int, bool) {
  if !strings.HasPrefix(raw, keyPrefix) || len(raw) <= len(keyPrefix) {
    return 0, false
  }

  d := raw[len(keyPrefix)]

  if d < '1' || d > '4' {
    return 0, false
  }

  return int(d - '0'), true
}

var errNoMatch = errors.New("not a telemetry line")

func parseTelemetry(raw string) (ev TelemetryEvent, err error) {
  m := telemetryLine.FindStringSubmatch(raw)

  if m == nil {
    return ev, errNoMatch
  }

  // the last number must end where the token does: "R: 3.4.5" is not "R: 3.4".
  if rest := raw[len(m[0]):]; rest != "" && !startsWithSeparator(rest) {
    return ev, pkgerrors.Wrapf(ErrParseFailure, "trailing garbage after impedance: %q", rest)
  }

  targets := []*Quantity{&ev.Voltage, &ev.Current, &ev.Impedance}

  for i, q := range targets {
    text := m[i+1]
    v, err := strconv.ParseFloat(text, 64)

    if err != nil {
      return ev, pkgerrors.Wrapf(ErrParseFailure, "field %d (%q): %v", i, text, err)
    }

    *q = Quantity{Text: text, Value: v}
  }

  return ev, nil
}

func startsWithSeparator(s string) bool {
  r, _ := utf8.DecodeRuneInString(s)
  return r == ',' || unicode.IsSpace(r)
}
