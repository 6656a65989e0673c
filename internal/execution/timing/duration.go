package timing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var timeUnits = map[string]time.Duration{
	"nanosecond":   time.Nanosecond,
	"nanoseconds":  time.Nanosecond,
	"ns":           time.Nanosecond,
	"microsecond":  time.Microsecond,
	"microseconds": time.Microsecond,
	"us":           time.Microsecond,
	"millisecond":  time.Millisecond,
	"milliseconds": time.Millisecond,
	"ms":           time.Millisecond,
	"second":       time.Second,
	"seconds":      time.Second,
	"s":            time.Second,
	"minute":       time.Minute,
	"minutes":      time.Minute,
	"min":          time.Minute,
	"hour":         time.Hour,
	"hours":        time.Hour,
	"h":            time.Hour,
	"day":          24 * time.Hour,
	"days":         24 * time.Hour,
	"d":            24 * time.Hour,
}

// Duration is a time quantity as written in the run plus its parsed value.
type Duration struct {
	Raw   string
	Value time.Duration
}

// ParseDuration parses a "<value>:<unit>" quantity such as "1:minute" or "2.5:hour".
func ParseDuration(raw string) (Duration, error) {
	value, unit, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return Duration{}, fmt.Errorf("duration %q: expected <value>:<unit>", raw)
	}
	scale, ok := timeUnits[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return Duration{}, fmt.Errorf("duration %q: unknown time unit %q", raw, unit)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return Duration{}, fmt.Errorf("duration %q: %w", raw, err)
	}
	if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Duration{}, fmt.Errorf("duration %q: must be a finite non-negative number", raw)
	}
	total := n * float64(scale)
	if total > math.MaxInt64 {
		return Duration{}, fmt.Errorf("duration %q: out of range", raw)
	}
	return Duration{Raw: raw, Value: time.Duration(math.Round(total))}, nil
}

func parseOptional(raw string) (*Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := ParseDuration(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
