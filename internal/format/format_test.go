package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCitizenID(t *testing.T) {
	require.Equal(t, "012 345 678 901", CitizenID("012345678901"))
	require.Equal(t, "012 345 678 901", CitizenID("012-345-678-901"))
	require.Equal(t, "", CitizenID(""))
	// wrong length passes through unchanged
	require.Equal(t, "12345", CitizenID("12345"))
}

func TestPhone(t *testing.T) {
	require.Equal(t, "+84 912 345 678", Phone("+84912345678"))
	require.Equal(t, "+84 912 345 678", Phone("84912345678"))
	require.Equal(t, "0912 345 678", Phone("0912345678"))
	require.Equal(t, "12345", Phone("12345"))
	require.Equal(t, "", Phone(""))
}

func TestDateAndDateTime(t *testing.T) {
	ts := time.Date(1990, 8, 15, 14, 30, 0, 0, time.UTC)
	require.Equal(t, "15/08/1990", Date(ts))
	require.Equal(t, "15/08/1990 14:30", DateTime(ts))
	require.Equal(t, "", Date(time.Time{}))
}

func TestQRPayloadDisplay(t *testing.T) {
	require.Equal(t, "custom", QRPayloadDisplay("custom", "012345678901"))
	require.Equal(t, "012345678901 (fallback)", QRPayloadDisplay("  ", "012345678901"))
}

func TestAge(t *testing.T) {
	dob := time.Now().AddDate(-30, 0, -1)
	require.Equal(t, "30 years old", Age(dob))
	// birthday not yet reached this year
	dob = time.Now().AddDate(-30, 0, 1)
	require.Equal(t, "29 years old", Age(dob))
	require.Equal(t, "", Age(time.Time{}))
}

func TestTimeAgo(t *testing.T) {
	require.Equal(t, "Just now", TimeAgo(time.Now().Add(-10*time.Second)))
	require.Equal(t, "5 minutes ago", TimeAgo(time.Now().Add(-5*time.Minute)))
	require.Equal(t, "1 hour ago", TimeAgo(time.Now().Add(-90*time.Minute)))
	require.Equal(t, "2 days ago", TimeAgo(time.Now().Add(-49*time.Hour)))
	require.Equal(t, "", TimeAgo(time.Time{}))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", Truncate("short", 10))
	require.Equal(t, "long te...", Truncate("long text that overflows", 10))
}

func TestParseDateInput(t *testing.T) {
	got, ok := ParseDateInput("15/08/1990")
	require.True(t, ok)
	require.Equal(t, time.Date(1990, 8, 15, 0, 0, 0, 0, time.UTC), got)

	got, ok = ParseDateInput("1990-08-15")
	require.True(t, ok)
	require.Equal(t, 1990, got.Year())

	_, ok = ParseDateInput("not a date")
	require.False(t, ok)
	_, ok = ParseDateInput("")
	require.False(t, ok)
}

func TestParseDateRangeEnd(t *testing.T) {
	// date-only input extends to the last instant of the day
	got, ok := ParseDateRangeEnd("15/08/1990")
	require.True(t, ok)
	require.Equal(t, time.Date(1990, 8, 15, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), got)

	// input with a time component is used as given
	got, ok = ParseDateRangeEnd("15/08/1990 10:30")
	require.True(t, ok)
	require.Equal(t, time.Date(1990, 8, 15, 10, 30, 0, 0, time.UTC), got)

	_, ok = ParseDateRangeEnd("not a date")
	require.False(t, ok)
}
