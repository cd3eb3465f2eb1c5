package record

import (
	"errors"
	"fmt"
	"strings"
)

const (
	secondsPerDegree = 60 * 60
	secondsPerMinute = 60
)

// ErrUnknownCoordinate is returned for coordinates recorded as "Unknown" or left empty.
var ErrUnknownCoordinate = errors.New("record: unknown coordinate")

// ErrInvalidCoordinate indicates a malformed DMS string.
type ErrInvalidCoordinate struct {
	Value  string
	Reason string
}

func (e *ErrInvalidCoordinate) Error() string {
	return fmt.Sprintf("record: invalid coordinate %q: %s", e.Value, e.Reason)
}

// ParseLatitude converts "DDMMSS[N|S]" to signed arc-seconds.
func ParseLatitude(s string) (int64, error) {
	return parseDMS(s, 2, 90, 'N', 'S')
}

// ParseLongitude converts "DDDMMSS[E|W]" to signed arc-seconds.
func ParseLongitude(s string) (int64, error) {
	return parseDMS(s, 3, 180, 'E', 'W')
}

func parseDMS(s string, degDigits int, maxDeg int64, pos, neg byte) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "unknown") {
		return 0, ErrUnknownCoordinate
	}
	if len(s) != degDigits+5 {
		return 0, &ErrInvalidCoordinate{Value: s, Reason: fmt.Sprintf("want %d characters", degDigits+5)}
	}
	deg, ok := digits(s[:degDigits])
	if !ok {
		return 0, &ErrInvalidCoordinate{Value: s, Reason: "degrees are not numeric"}
	}
	mins, ok := digits(s[degDigits : degDigits+2])
	if !ok {
		return 0, &ErrInvalidCoordinate{Value: s, Reason: "minutes are not numeric"}
	}
	sec, ok := digits(s[degDigits+2 : degDigits+4])
	if !ok {
		return 0, &ErrInvalidCoordinate{Value: s, Reason: "seconds are not numeric"}
	}
	if mins >= 60 || sec >= 60 {
		return 0, &ErrInvalidCoordinate{Value: s, Reason: "minutes and seconds must be below 60"}
	}
	total := deg*secondsPerDegree + mins*secondsPerMinute + sec
	if total > maxDeg*secondsPerDegree {
		return 0, &ErrInvalidCoordinate{Value: s, Reason: fmt.Sprintf("exceeds %d degrees", maxDeg)}
	}
	switch h := s[len(s)-1]; h {
	case pos, pos + 'a' - 'A':
		return total, nil
	case neg, neg + 'a' - 'A':
		return -total, nil
	default:
		return 0, &ErrInvalidCoordinate{Value: s, Reason: fmt.Sprintf("hemisphere must be %c or %c", pos, neg)}
	}
}

func digits(s string) (int64, bool) {
	var v int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int64(c-'0')
	}
	return v, true
}

// FormatSeconds renders signed arc-seconds as "DDd MMm SSs" with a hemisphere
// suffix, e.g. "79d 34m 50s West".
func FormatSeconds(sec int64, latitude bool) string {
	hemi := "North"
	if !latitude {
		hemi = "East"
	}
	if sec < 0 {
		sec = -sec
		hemi = "South"
		if !latitude {
			hemi = "West"
		}
	}
	d := sec / secondsPerDegree
	m := (sec % secondsPerDegree) / secondsPerMinute
	s := sec % secondsPerMinute
	return fmt.Sprintf("%dd %dm %ds %s", d, m, s, hemi)
}
