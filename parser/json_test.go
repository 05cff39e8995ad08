package parser

import (
	"testing"

	"github.com/arloliu/sensorpipe/reading"
	"github.com/stretchr/testify/require"
)

func TestParseJSONLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []reading.Reading
	}{
		{
			name: "single object",
			line: `{"sensor_id":"s1","value":"85","sensor":"ds18b20"}`,
			want: []reading.Reading{{"sensor_id": "s1", "value": "85", "sensor": "ds18b20"}},
		},
		{
			name: "array of objects keeps order",
			line: `[{"a":"1"},{"a":"2"} , {"a":"3"}]`,
			want: []reading.Reading{{"a": "1"}, {"a": "2"}, {"a": "3"}},
		},
		{
			name: "bare values stored as text",
			line: `{"t": 1700000000 , "v":-3.25e1,"ok":true,"err":null }`,
			want: []reading.Reading{{"t": "1700000000", "v": "-3.25e1", "ok": "true", "err": "null"}},
		},
		{
			name: "nested array captured verbatim",
			line: `{"id":"x","samples":[1, [2,3], {"k":"]"}],"n":2}`,
			want: []reading.Reading{{"id": "x", "samples": `[1, [2,3], {"k":"]"}]`, "n": "2"}},
		},
		{
			name: "nested object captured verbatim",
			line: `{"meta":{"loc":{"lat":1.5},"s":"}{"},"v":"1"}`,
			want: []reading.Reading{{"meta": `{"loc":{"lat":1.5},"s":"}{"}`, "v": "1"}},
		},
		{
			name: "escaped quote does not terminate string",
			line: `{"msg":"say \"hi\", ok","k\"ey":"v"}`,
			want: []reading.Reading{{"msg": `say "hi", ok`, `k"ey`: "v"}},
		},
		{
			name: "backslash consumes next byte literally",
			line: `{"path":"C:\\temp\n"}`,
			want: []reading.Reading{{"path": `C:\tempn`}},
		},
		{
			name: "escaped quote inside nested string",
			line: `{"arr":["a\"]", "b"],"z":"1"}`,
			want: []reading.Reading{{"arr": `["a\"]", "b"]`, "z": "1"}},
		},
		{
			name: "leading whitespace",
			line: "  \t{\"a\":\"1\"}",
			want: []reading.Reading{{"a": "1"}},
		},
		{
			name: "empty object dropped",
			line: `{}`,
			want: nil,
		},
		{
			name: "empty objects inside array dropped",
			line: `[{},{"a":"1"},{ }]`,
			want: []reading.Reading{{"a": "1"}},
		},
		{
			name: "empty array",
			line: `[]`,
			want: nil,
		},
		{
			name: "duplicate key keeps last value",
			line: `{"a":"1","a":"2"}`,
			want: []reading.Reading{{"a": "2"}},
		},
		{
			name: "not json",
			line: `sensor=a value=1`,
			want: nil,
		},
		{
			name: "blank line",
			line: "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseJSONLine(tt.line))
		})
	}
}

func TestParseJSONLine_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []reading.Reading
	}{
		{"truncated object", `{"a":"1","b":"2`, nil},
		{"truncated bare value", `{"a":1`, nil},
		{"missing colon", `{"a" "1"}`, nil},
		{"unquoted key", `{a:"1"}`, nil},
		{"trailing backslash", `{"a":"1\`, nil},
		{"truncated nested", `{"a":[1,2`, nil},
		{"array truncated after complete object", `[{"a":"1"},{"a":"2"`, []reading.Reading{{"a": "1"}}},
		{"array garbage after object", `[{"a":"1"} x {"a":"2"}]`, []reading.Reading{{"a": "1"}}},
		{"array non-object element", `[{"a":"1"},2,{"a":"3"}]`, []reading.Reading{{"a": "1"}}},
		{"garbage between pairs", `{"a":"1" "b":"2"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseJSONLine(tt.line))
		})
	}
}

func TestParseJSONLine_Idempotent(t *testing.T) {
	lines := []string{
		`[{"a":"1","n":[1,{"x":"}"}]},{"b":true}]`,
		`{"msg":"a\"b","v":1.0}`,
		`{"a":"1","b":`,
	}
	for _, line := range lines {
		require.Equal(t, ParseJSONLine(line), ParseJSONLine(line))
	}
}

func TestJSONReadings(t *testing.T) {
	var got []string
	for r := range JSONReadings(`[{"a":"1"},{"a":"2"},{"a":"3"}]`) {
		got = append(got, r["a"])
		if len(got) == 2 {
			break
		}
	}
	require.Equal(t, []string{"1", "2"}, got)
}

func BenchmarkParseJSONLine(b *testing.B) {
	line := `[{"timestamp":1700000000,"sensor":"ds18b20","sensor_id":"28-0000","value":"21.5","tags":["a","b"]},` +
		`{"timestamp":1700000060,"sensor":"dht22","sensor_id":"d1","humidity":"45.2","msg":"ok \"fine\""}]`
	b.ReportAllocs()
	for b.Loop() {
		_ = ParseJSONLine(line)
	}
}
