package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/synaptica-ai/noshow/pkg/appointment"
)

var (
	errFieldAbsent  = errors.New("field absent")
	errNotNumeric   = errors.New("value is not numeric")
	errNotFinite    = errors.New("value is not finite")
	errNotTimestamp = errors.New("value is not an ISO-8601 timestamp")
)

// MissingFieldError reports a mandatory field that is absent or cannot be
// coerced to a number. It points at a schema or caller bug, not at data quality.
type MissingFieldError struct {
	Field string
	Err   error
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *MissingFieldError) Unwrap() error {
	return e.Err
}

func IsMissingField(err error) bool {
	var mf *MissingFieldError
	return errors.As(err, &mf)
}

// toNumber accepts JSON numbers, Go numerics, booleans and numeric or boolean strings.
func toNumber(v interface{}) (float64, error) {
	var f float64
	switch t := v.(type) {
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		return float64(t), nil
	case int8:
		return float64(t), nil
	case int16:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint:
		return float64(t), nil
	case uint8:
		return float64(t), nil
	case uint16:
		return float64(t), nil
	case uint32:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, errNotNumeric
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if b, err := strconv.ParseBool(s); err == nil && !isDigits(s) {
			if b {
				return 1, nil
			}
			return 0, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errNotNumeric
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %T", errNotNumeric, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

// toInteger coerces like toNumber and truncates toward zero.
func toInteger(v interface{}) (float64, error) {
	f, err := toNumber(v)
	if err != nil {
		return 0, err
	}
	return math.Trunc(f), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Layouts tried in order. Go accepts a fractional second after the seconds
// field even when the layout omits it.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp reads an ISO-8601 timestamp. The returned time keeps the
// wall-clock fields as written; zones are not converted.
func ParseTimestamp(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, errNotTimestamp
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errNotTimestamp, value)
}

func parseTimestampField(rec appointment.Record, field string) (time.Time, error) {
	raw, ok := rec.Lookup(field)
	if !ok {
		return time.Time{}, fmt.Errorf("%s: %w", field, errFieldAbsent)
	}
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%s: %w", field, errNotTimestamp)
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t, nil
}

// putTemporal writes month, weekday (Monday=0) and hour into dst.
func putTemporal(dst []float64, t time.Time) {
	dst[0] = float64(t.Month())
	dst[1] = float64((int(t.Weekday()) + 6) % 7)
	dst[2] = float64(t.Hour())
}
