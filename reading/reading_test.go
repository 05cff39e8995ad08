package reading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReading_Key(t *testing.T) {
	r1 := Reading{"sensor_id": "s1", "value": "85", "sensor": "ds18b20"}
	r2 := Reading{"value": "85", "sensor": "ds18b20", "sensor_id": "s1"}

	require.Equal(t, r1.Key(), r2.Key())
	require.Equal(t, "sensor\x1fds18b20\x1esensor_id\x1fs1\x1evalue\x1f85", r1.Key())

	require.NotEqual(t, Reading{"a": "1"}.Key(), Reading{"a": "2"}.Key())
	require.NotEqual(t, Reading{"ab": "c"}.Key(), Reading{"a": "bc"}.Key())
	require.Equal(t, "", Reading{}.Key())
}

func TestReading_KeysAndGet(t *testing.T) {
	r := Reading{"b": "2", "a": "1", "c": ""}

	require.Equal(t, []string{"a", "b", "c"}, r.Keys())

	v, ok := r.Get("c")
	require.True(t, ok)
	require.Equal(t, "", v)

	_, ok = r.Get("missing")
	require.False(t, ok)
}

func TestReading_Clone(t *testing.T) {
	r := Reading{"a": "1"}
	c := r.Clone()
	c["a"] = "2"

	require.Equal(t, "1", r["a"])
	require.Nil(t, Reading(nil).Clone())
}

func TestAppendJSON(t *testing.T) {
	r := Reading{
		"name":   "kitchen",
		"value":  "21.5",
		"ok":     "true",
		"err":    "null",
		"tags":   `["a","b"]`,
		"meta":   `{"x":1}`,
		"quote":  `say "hi"`,
		"int":    "-7",
		"hexish": "0x10",
		"empty":  "",
	}

	got := string(AppendJSON(nil, r))
	require.Equal(t,
		`{"empty":"","err":null,"hexish":"0x10","int":-7,"meta":{"x":1},"name":"kitchen","ok":true,"quote":"say \"hi\"","tags":["a","b"],"value":21.5}`,
		got)
}

func TestIsBareValue(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1", true},
		{"1.5e3", true},
		{"-0.25", true},
		{"+1", false},
		{"NaN", false},
		{"Inf", false},
		{"01", false},
		{"true", true},
		{"null", true},
		{"[1,2]", true},
		{"[1,2", false},
		{"{}", true},
		{"abc", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, IsBareValue(tt.in))
		})
	}
}
