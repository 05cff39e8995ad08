package reading

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultTimestampColumns are the columns checked, in order, for a reading's time.
var DefaultTimestampColumns = []string{"timestamp", "ts", "time", "date"}

// millisThreshold separates epoch seconds from epoch milliseconds: 1e11 seconds
// is beyond year 5000, while 1e11 milliseconds is March 1973.
const millisThreshold = 1e11

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Timestamp returns the reading's time as epoch seconds, using the first of
// columns present in r (DefaultTimestampColumns when columns is empty).
//
// Numeric values are epoch seconds, or milliseconds when larger than 1e11.
// Textual values are parsed as RFC3339 or "2006-01-02 15:04:05" style dates in
// UTC. The second result is false when no usable timestamp exists.
func Timestamp(r Reading, columns []string) (int64, bool) {
	if len(columns) == 0 {
		columns = DefaultTimestampColumns
	}
	for _, col := range columns {
		v, ok := r[col]
		if !ok {
			continue
		}

		return ParseTimestamp(v)
	}

	return 0, false
}

// ParseTimestamp converts a raw timestamp value to epoch seconds.
func ParseTimestamp(v string) (int64, bool) {
	v = strings.TrimSpace(v)
	if v == "" || v == "null" {
		return 0, false
	}

	if f, err := strconv.ParseFloat(v, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		if math.Abs(f) > millisThreshold {
			f /= 1000
		}
		f = math.Floor(f)
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}

		return int64(f), true
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Unix(), true
		}
	}

	return 0, false
}

// DateRange is an inclusive [Min, Max] window in epoch seconds. A zero bound
// is unbounded.
type DateRange struct {
	Min     int64
	Max     int64
	Columns []string
}

// Bounded reports whether at least one bound is set.
func (d DateRange) Bounded() bool {
	return d.Min != 0 || d.Max != 0
}

// Contains reports whether r falls inside the window. A reading without a
// usable timestamp is inside: absence is not evidence of exclusion.
func (d DateRange) Contains(r Reading) bool {
	if !d.Bounded() {
		return true
	}
	ts, ok := Timestamp(r, d.Columns)
	if !ok {
		return true
	}
	if d.Min != 0 && ts < d.Min {
		return false
	}
	if d.Max != 0 && ts > d.Max {
		return false
	}

	return true
}
