package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	start, err := ParseMonth("2025-01")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), start)
}

func TestParseMonthRejectsMalformedKeys(t *testing.T) {
	for _, key := range []string{"", "2025", "2025-13", "2025-1", "01-2025", "2025-01-15"} {
		_, err := ParseMonth(key)
		require.Error(t, err, "key %q", key)
		require.ErrorIs(t, err, ErrInvalidMonth)
	}
}

func TestMonthBounds(t *testing.T) {
	start, end, err := MonthBounds("2024-12")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestNextMonth(t *testing.T) {
	key, err := NextMonth("2024-12")
	require.NoError(t, err)
	require.Equal(t, "2025-01", key)

	_, err = NextMonth("december")
	require.ErrorIs(t, err, ErrInvalidMonth)
}

func TestMonthRange(t *testing.T) {
	keys, err := MonthRange("2024-11", "2025-02")
	require.NoError(t, err)
	require.Equal(t, []string{"2024-11", "2024-12", "2025-01", "2025-02"}, keys)
}

func TestMonthRangeReversed(t *testing.T) {
	_, err := MonthRange("2025-02", "2025-01")
	require.Error(t, err)
}

func TestMonthKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 2025-02-01 03:00 +10:00 is still January in UTC.
	key := MonthKey(time.Date(2025, 2, 1, 3, 0, 0, 0, loc))
	require.Equal(t, "2025-01", key)
}
