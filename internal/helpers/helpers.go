package helpers

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Layouts for the close-approach calendar timestamps. The dataset uses
// English month abbreviations on the way in; serialized output uses the
// ISO date form. Neither side carries seconds or a timezone marker.
const (
	approachTimeLayout = "2006-Jan-02 15:04"
	displayTimeLayout  = "2006-01-02 15:04"
)

// ErrFormat reports calendar text that does not match the dataset layout.
var ErrFormat = errors.New("malformed calendar date/time")

// ParseApproachTime parses text like "2020-Dec-31 12:00" into a naive
// timestamp (implicitly UTC).
func ParseApproachTime(text string) (time.Time, error) {
	t, err := time.Parse(approachTimeLayout, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrFormat, text)
	}
	return t, nil
}

// FormatApproachTime renders a timestamp as "2020-12-31 12:00".
func FormatApproachTime(t time.Time) string {
	return t.Format(displayTimeLayout)
}

// Coerce applies convert to raw when the field is non-empty; an empty
// field yields the default as-is, unconverted. Conversion errors
// propagate to the caller.
func Coerce[T any](raw string, def T, convert func(string) (T, error)) (T, error) {
	if raw == "" {
		return def, nil
	}
	return convert(raw)
}

func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// YesFlag maps the dataset's literal "Y" to true; anything else,
// including an empty field, is false.
func YesFlag(token string) bool {
	return token == "Y"
}
