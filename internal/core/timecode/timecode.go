// Package timecode converts between the HH:MM:SS text form used by the draft
// and the millisecond values exchanged with the rundown API.
package timecode

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Zero is the sentinel for an unset end time.
const Zero = "00:00:00"

const dayMillis = int64(24 * time.Hour / time.Millisecond)

// ErrInvalid is returned for text that is not a well-formed HH:MM:SS value.
var ErrInvalid = errors.New("invalid time")

// Parse reads a strict HH:MM:SS value: two ASCII digits per field, hours in
// [0,23], minutes and seconds in [0,59]. Nothing is coerced: "5:00",
// "00:60:00", "+1:00:00" and "aa:bb:cc" are all rejected.
func Parse(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w %q: want HH:MM:SS", ErrInvalid, s)
	}

	limits := [3]int{23, 59, 59}
	var values [3]int
	for i, part := range parts {
		if len(part) != 2 {
			return 0, fmt.Errorf("%w %q: want HH:MM:SS", ErrInvalid, s)
		}
		if !isDigit(part[0]) || !isDigit(part[1]) {
			return 0, fmt.Errorf("%w %q: %q is not a number", ErrInvalid, s, part)
		}
		n := int(part[0]-'0')*10 + int(part[1]-'0')
		if n > limits[i] {
			return 0, fmt.Errorf("%w %q: %d out of range 0-%d", ErrInvalid, s, n, limits[i])
		}
		values[i] = n
	}

	return time.Duration(values[0])*time.Hour +
		time.Duration(values[1])*time.Minute +
		time.Duration(values[2])*time.Second, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Validate reports whether s is a well-formed HH:MM:SS value.
func Validate(s string) error {
	_, err := Parse(s)
	return err
}

// IsZero reports whether s is the unset sentinel.
func IsZero(s string) bool {
	return s == Zero
}

// ToMillis parses s and returns it in milliseconds.
func ToMillis(s string) (int64, error) {
	d, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return d.Milliseconds(), nil
}

// FromMillis formats a millisecond value as HH:MM:SS. Sub-second remainders
// are truncated and hours are not wrapped, so values past a day render as
// e.g. "25:00:00".
func FromMillis(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	secs := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// Format renders a duration as HH:MM:SS.
func Format(d time.Duration) string {
	return FromMillis(d.Milliseconds())
}

// AddClock adds delta to a time-of-day given in milliseconds and formats the
// result, wrapping past midnight so the output is always a valid clock time.
func AddClock(ms, delta int64) string {
	sum := (ms + delta) % dayMillis
	if sum < 0 {
		sum += dayMillis
	}
	return FromMillis(sum)
}
