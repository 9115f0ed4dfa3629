package deadline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValid(t *testing.T) {
	c := New(time.UTC)

	got, err := c.Parse("31/12/2030 23:59")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, time.December, 31, 23, 59, 0, 0, time.UTC), got)
}

func TestParseRejectsMalformed(t *testing.T) {
	c := New(time.UTC)

	cases := []string{
		"",
		"31/13/2024 10:00",  // no thirteenth month
		"30/02/2024 10:00",  // February has no 30th
		"31/04/2024 10:00",  // April has 30 days
		"2024-12-31 10:00",  // ISO shape, not the display shape
		"1/1/2024 10:00",    // missing zero padding
		"01/01/2024 9:00",   // missing zero padding in hour
		"01/01/24 10:00",    // 2-digit year
		"01/01/2024 10:00x", // trailing garbage
		"01/01/2024 24:00",  // hour out of range
	}
	for _, in := range cases {
		_, err := c.Parse(in)
		assert.Error(t, err, "input %q", in)
		var decodeErr *DecodeError
		assert.ErrorAs(t, err, &decodeErr, "input %q", in)
	}
}

func TestRoundTrip(t *testing.T) {
	c := New(time.UTC)

	for _, s := range []string{
		"01/01/2025 00:00",
		"29/02/2024 12:30", // leap day
		"31/12/2030 23:59",
		"15/06/2026 09:05",
	} {
		canonical, err := c.Encode(s)
		require.NoError(t, err)

		back, err := c.Decode(canonical)
		require.NoError(t, err)
		assert.Equal(t, s, back)
	}
}

func TestEncodeProducesCanonicalUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	c := New(loc)

	canonical, err := c.Encode("01/06/2026 10:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-06-01T05:00:00Z", canonical)
}

func TestParseCanonicalVariants(t *testing.T) {
	want := time.Date(2026, time.June, 1, 5, 0, 0, 0, time.UTC)

	for _, s := range []string{
		"2026-06-01T05:00:00Z",
		"2026-06-01T05:00:00",
		"2026-06-01T05:00",
	} {
		got, err := ParseCanonical(s)
		require.NoError(t, err, "input %q", s)
		assert.True(t, got.Equal(want), "input %q", s)
	}

	_, err := ParseCanonical("01/06/2026 05:00")
	assert.Error(t, err)
}

func TestFormatZeroPads(t *testing.T) {
	c := New(time.UTC)
	assert.Equal(t, "05/03/2026 07:09", c.Format(time.Date(2026, time.March, 5, 7, 9, 0, 0, time.UTC)))
}
