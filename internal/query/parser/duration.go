package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// unitSeconds maps a relative-duration unit word (singular or plural) to its
// length in seconds.
var unitSeconds = map[string]float64{
	"second": 1,
	"minute": 60,
	"hour":   3600,
	"day":    86400,
	"week":   86400 * 7,
	"month":  86400 * 30,
	"year":   86400 * 365,
}

// ParseRelativeDuration parses a humane duration such as "3 days" or
// "2 weeks" into a time.Duration. It accepts one or more "<number> <unit>"
// terms, optionally comma- or "and"-joined ("1 day 2 hours").
func ParseRelativeDuration(s string) (time.Duration, error) {
	fields := strings.Fields(strings.ReplaceAll(strings.ReplaceAll(s, ",", " "), " and ", " "))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty duration")
	}

	var total float64
	matched := false
	i := 0
	for i < len(fields) {
		n, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration term %q", fields[i])
		}
		i++
		if i >= len(fields) {
			return 0, fmt.Errorf("duration %q missing unit after %v", s, n)
		}
		unit := strings.ToLower(strings.TrimSuffix(fields[i], "s"))
		secs, ok := unitSeconds[unit]
		if !ok {
			return 0, fmt.Errorf("unknown duration unit %q", fields[i])
		}
		total += n * secs
		matched = true
		i++
	}
	if !matched {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(total * float64(time.Second)), nil
}

// ParseTimeSpec parses a time filter argument per the grammar's time-filter
// rule: RFC-3339, ISO "%F"/"%F %T", or a relative humane duration resolved
// against now.
func ParseTimeSpec(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if d, err := ParseRelativeDuration(s); err == nil {
		return now.Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time spec %q", s)
}
