package reading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1700000000", 1700000000, true},
		{"1700000000.75", 1700000000, true},
		{"1700000000123", 1700000000, true},
		{" 1700000000 ", 1700000000, true},
		{"2023-11-14T22:13:20Z", 1700000000, true},
		{"2023-11-14T23:13:20+01:00", 1700000000, true},
		{"2023-11-14 22:13:20", 1700000000, true},
		{"2023-11-14T22:13:20", 1700000000, true},
		{"2023-11-14", 1699920000, true},
		{"", 0, false},
		{"null", 0, false},
		{"NaN", 0, false},
		{"yesterday", 0, false},
		{"1e30", 0, false},
		{"-1e30", 0, false},
		{"9223372036854775807000", 0, false},
		{"-9223372036854775808000", -9223372036854775808, true},
		{"-1e20", -100000000000000000, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTimestamp_ColumnOrder(t *testing.T) {
	r := Reading{"time": "100", "ts": "200"}

	ts, ok := Timestamp(r, nil)
	require.True(t, ok)
	require.Equal(t, int64(200), ts, "ts is checked before time")

	ts, ok = Timestamp(r, []string{"time"})
	require.True(t, ok)
	require.Equal(t, int64(100), ts)

	_, ok = Timestamp(Reading{"value": "1"}, nil)
	require.False(t, ok)

	_, ok = Timestamp(Reading{"timestamp": "garbage", "ts": "200"}, nil)
	require.False(t, ok, "the first present column decides")
}

func TestDateRange_Contains(t *testing.T) {
	d := DateRange{Min: 1000, Max: 2000}

	require.True(t, d.Contains(Reading{"timestamp": "1000"}))
	require.True(t, d.Contains(Reading{"timestamp": "2000"}))
	require.False(t, d.Contains(Reading{"timestamp": "999"}))
	require.False(t, d.Contains(Reading{"timestamp": "2001"}))
	require.True(t, d.Contains(Reading{"value": "1"}), "missing timestamp passes")
	require.True(t, d.Contains(Reading{"timestamp": "soon"}), "unusable timestamp passes")
	require.True(t, d.Contains(Reading{"ts": "1e30"}), "out of range number passes")
	require.True(t, d.Contains(Reading{"ts": "-1e30"}))

	open := DateRange{Min: 1000}
	require.True(t, open.Contains(Reading{"timestamp": "99999999"}))
	require.False(t, open.Contains(Reading{"timestamp": "5"}))

	require.False(t, DateRange{}.Bounded())
	require.True(t, DateRange{}.Contains(Reading{"timestamp": "1"}))
}
