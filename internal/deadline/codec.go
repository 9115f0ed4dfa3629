// Package deadline converts between the user-facing deadline text format
// and the canonical interchange timestamp used by the goal API.
package deadline

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DisplayLayout is the only accepted user-facing format: day, month,
// 4-digit year, 24-hour clock, all fields zero-padded.
const DisplayLayout = "02/01/2006 15:04"

// CanonicalLayout is the interchange form: UTC with a trailing Z and
// second precision, matching what the goal API emits.
const CanonicalLayout = "2006-01-02T15:04:05Z"

// displayShape enforces exact zero-padded shape before parsing; time.Parse
// alone would accept single-digit fields.
var displayShape = regexp.MustCompile(`^\d{2}/\d{2}/\d{4} \d{2}:\d{2}$`)

// DecodeError reports a deadline string that could not be interpreted.
type DecodeError struct {
	Input string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid deadline %q: use DD/MM/YYYY HH:MM", e.Input)
}

// Codec parses and formats deadlines relative to a fixed location.
// The zero value is not usable; construct with New.
type Codec struct {
	loc *time.Location
}

// New returns a Codec interpreting display strings in loc. A nil loc
// means the system local time zone.
func New(loc *time.Location) *Codec {
	if loc == nil {
		loc = time.Local
	}
	return &Codec{loc: loc}
}

// Parse converts a DD/MM/YYYY HH:MM string into the absolute instant it
// denotes in the codec's location. Strings of the wrong shape or naming
// an impossible calendar date are rejected with a DecodeError.
func (c *Codec) Parse(display string) (time.Time, error) {
	if !displayShape.MatchString(display) {
		return time.Time{}, &DecodeError{Input: display}
	}
	t, err := time.ParseInLocation(DisplayLayout, display, c.loc)
	if err != nil {
		return time.Time{}, &DecodeError{Input: display}
	}
	// time.ParseInLocation normalizes out-of-range components (e.g. 31/04
	// becomes 01/05) in some forms; formatting back catches any drift.
	if t.Format(DisplayLayout) != display {
		return time.Time{}, &DecodeError{Input: display}
	}
	return t, nil
}

// Format renders an instant as zero-padded DD/MM/YYYY HH:MM in the
// codec's location. It is the inverse of Parse.
func (c *Codec) Format(t time.Time) string {
	return t.In(c.loc).Format(DisplayLayout)
}

// Encode parses a display string and serializes it in canonical form.
func (c *Codec) Encode(display string) (string, error) {
	t, err := c.Parse(display)
	if err != nil {
		return "", err
	}
	return Canonical(t), nil
}

// Decode parses a canonical timestamp and renders it in display form.
func (c *Codec) Decode(canonical string) (string, error) {
	t, err := ParseCanonical(canonical)
	if err != nil {
		return "", err
	}
	return c.Format(t), nil
}

// Canonical serializes an instant as UTC RFC 3339 with a trailing Z.
func Canonical(t time.Time) string {
	return t.UTC().Format(CanonicalLayout)
}

// ParseCanonical reads an interchange timestamp. Besides the strict
// canonical layout it tolerates the naive ISO variants the server emits
// (no zone suffix, optional fractional seconds), all taken as UTC.
func ParseCanonical(s string) (time.Time, error) {
	trimmed := strings.TrimSuffix(s, "Z")
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	} {
		if t, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid canonical timestamp %q", s)
}
