// Package timestamp standardizes on int64 Unix milliseconds for every
// timestamp the pipeline carries.
//
// Samples, registry entries, and health reports all stamp time the same
// way: milliseconds since the Unix epoch, UTC. A value of 0 means
// "unset"; every function treats it that way and returns a zero-ish
// result rather than the epoch.
//
//	now := timestamp.Now()
//	display := timestamp.Format(ts)
//	ts := timestamp.Parse("2024-03-07T09:15:30Z")
//	ts := timestamp.Parse(1709802930123)
package timestamp

import (
	"fmt"
	"strconv"
	"time"
)

// Timestamps above this are already in milliseconds; below it they are
// taken as seconds. The cutoff sits around September 2001 in ms.
const msCutoff = 1e12

// Year 3000 in Unix milliseconds, the sanity ceiling for Validate.
const maxReasonableMs = 32503680000000

// Now returns the current time as Unix milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// ToUnixMs converts a time.Time to Unix milliseconds.
func ToUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromUnixMs converts Unix milliseconds to time.Time.
// Returns the zero time for an unset timestamp.
func FromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// ToTime is an alias for FromUnixMs for better readability.
func ToTime(ms int64) time.Time {
	return FromUnixMs(ms)
}

// Format renders a timestamp as an RFC3339 string for display.
// Returns "" for an unset timestamp.
func Format(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

// Parse converts loosely typed timestamp inputs to Unix milliseconds.
// Device metadata and registry JSON deliver timestamps as numbers,
// numeric strings, or RFC3339 strings depending on the source.
//
// Accepted: int64/int/int32 and float64 (seconds or milliseconds,
// decided by magnitude), RFC3339 or numeric strings, time.Time and
// *time.Time, nil. Anything unparseable comes back as 0.
func Parse(input any) int64 {
	if input == nil {
		return 0
	}

	switch v := input.(type) {
	case int64:
		return normalizeNumeric(float64(v))

	case float64:
		return normalizeNumeric(v)

	case int:
		return normalizeNumeric(float64(v))

	case int32:
		return normalizeNumeric(float64(v))

	case string:
		return parseString(v)

	case time.Time:
		return ToUnixMs(v)

	case *time.Time:
		if v == nil {
			return 0
		}
		return ToUnixMs(*v)

	default:
		return 0
	}
}

// normalizeNumeric maps a numeric timestamp to milliseconds by
// magnitude.
func normalizeNumeric(v float64) int64 {
	if v == 0 {
		return 0
	}
	if v > msCutoff {
		return int64(v)
	}
	return int64(v * 1000)
}

func parseString(s string) int64 {
	if s == "" {
		return 0
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return ToUnixMs(t)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return normalizeNumeric(float64(n))
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return normalizeNumeric(f)
	}
	return 0
}

// IsZero checks if a timestamp is unset.
func IsZero(ms int64) bool {
	return ms == 0
}

// Monotonic returns the current time as Unix milliseconds derived from
// start plus the elapsed time measured on the monotonic clock, so
// wall-clock adjustments never move successive results backwards.
func Monotonic(start time.Time) int64 {
	return start.Add(time.Since(start)).UnixMilli()
}

// Since returns the duration elapsed since the given timestamp, or 0
// for an unset timestamp.
func Since(ms int64) time.Duration {
	if ms == 0 {
		return 0
	}
	return time.Since(time.UnixMilli(ms))
}

// Add shifts a timestamp forward by d. An unset timestamp stays unset.
func Add(ms int64, d time.Duration) int64 {
	if ms == 0 {
		return 0
	}
	return time.UnixMilli(ms).Add(d).UnixMilli()
}

// Sub shifts a timestamp backward by d. An unset timestamp stays unset.
func Sub(ms int64, d time.Duration) int64 {
	if ms == 0 {
		return 0
	}
	return time.UnixMilli(ms).Add(-d).UnixMilli()
}

// Between returns the duration from start to end, or 0 if either is
// unset.
func Between(start, end int64) time.Duration {
	if start == 0 || end == 0 {
		return 0
	}
	return time.UnixMilli(end).Sub(time.UnixMilli(start))
}

// Min returns the earlier of two timestamps, ignoring unset values.
func Min(a, b int64) int64 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	if a < b {
		return a
	}
	return b
}

// Max returns the later of two timestamps, ignoring unset values.
func Max(a, b int64) int64 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	if a > b {
		return a
	}
	return b
}

// Validate rejects negative timestamps and values past year 3000.
func Validate(ms int64) error {
	if ms < 0 {
		return fmt.Errorf("timestamp cannot be negative: %d", ms)
	}
	if ms > maxReasonableMs {
		return fmt.Errorf("timestamp too far in future: %d", ms)
	}
	return nil
}
