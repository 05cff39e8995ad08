package errdef

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arloliu/sensorpipe/errs"
	"github.com/arloliu/sensorpipe/reading"
	"github.com/stretchr/testify/require"
)

func TestTable_Match(t *testing.T) {
	table, err := NewTable(
		Definition{SensorPattern: "DS18B20", Field: "value", Value: "85", Description: "comm error"},
		Definition{SensorPattern: "bme*", Field: "pressure", Value: "0", Description: "no response"},
	)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	d, ok := table.Match(reading.Reading{"value": "85"}, "ds18b20")
	require.True(t, ok)
	require.Equal(t, "comm error", d.Description)

	_, ok = table.Match(reading.Reading{"value": "85"}, "Ds18B20")
	require.True(t, ok, "sensor name is case-insensitive")

	_, ok = table.Match(reading.Reading{"value": "85.0"}, "ds18b20")
	require.False(t, ok, "values compare as exact text")

	_, ok = table.Match(reading.Reading{"other": "85"}, "ds18b20")
	require.False(t, ok)

	_, ok = table.Match(reading.Reading{"value": "85"}, "dht22")
	require.False(t, ok)

	_, ok = table.Match(reading.Reading{"pressure": "0"}, "BME280")
	require.True(t, ok, "glob patterns match")

	_, ok = table.Match(reading.Reading{"value": "85"}, "")
	require.False(t, ok)

	var nilTable *Table
	_, ok = nilTable.Match(reading.Reading{"value": "85"}, "ds18b20")
	require.False(t, ok)
	require.Equal(t, 0, nilTable.Len())
}

func TestTable_DefinitionsOrder(t *testing.T) {
	defs := []Definition{
		{SensorPattern: "dht*", Field: "humidity", Value: "0"},
		{SensorPattern: "zeta", Field: "value", Value: "1"},
		{SensorPattern: "alpha", Field: "value", Value: "2"},
		{SensorPattern: "zeta", Field: "value", Value: "3"},
		{SensorPattern: "m?", Field: "value", Value: "4"},
		{SensorPattern: "mid", Field: "value", Value: "5"},
	}
	table, err := NewTable(defs...)
	require.NoError(t, err)

	want := []Definition{defs[1], defs[2], defs[3], defs[5], defs[0], defs[4]}
	for range 20 {
		require.Equal(t, want, table.Definitions())
	}

	got := table.Definitions()
	got[0].Value = "changed"
	require.Equal(t, "1", table.Definitions()[0].Value, "callers get a copy")
	require.Nil(t, (*Table)(nil).Definitions())
}

func TestNewTable_Invalid(t *testing.T) {
	_, err := NewTable(Definition{SensorPattern: "", Field: "value"})
	require.ErrorIs(t, err, errs.ErrInvalidErrorRule)

	_, err = NewTable(Definition{SensorPattern: "x", Field: ""})
	require.ErrorIs(t, err, errs.ErrInvalidErrorRule)

	_, err = NewTable(Definition{SensorPattern: "[x", Field: "v"})
	require.ErrorIs(t, err, errs.ErrInvalidErrorRule)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ds18b20.txt", strings.Join([]string{
		"# DS18B20 failure values",
		"value:85:power-on reset: check wiring",
		"",
		"value:-127:disconnected",
		"malformed line without separator",
		"temperature:85",
	}, "\n"))
	writeFile(t, dir, "DHT22", "humidity:0:timeout\n")
	writeFile(t, dir, ".hidden", "value:1:ignored\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	table, err := LoadDir(dir, nil)
	require.NoError(t, err)
	require.Equal(t, 4, table.Len())

	d, ok := table.Match(reading.Reading{"value": "85"}, "DS18B20")
	require.True(t, ok)
	require.Equal(t, "power-on reset: check wiring", d.Description)

	d, ok = table.Match(reading.Reading{"temperature": "85"}, "ds18b20")
	require.True(t, ok)
	require.Empty(t, d.Description)

	_, ok = table.Match(reading.Reading{"humidity": "0"}, "dht22")
	require.True(t, ok)

	_, ok = table.Match(reading.Reading{"value": "1"}, "hidden")
	require.False(t, ok)
}

func TestLoadDir_LogsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bme280.txt", "value:1:ok\nno separator here\n")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	table, err := LoadDir(dir, logger)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	require.Contains(t, logs.String(), "skipping malformed error definition")
	require.Contains(t, logs.String(), "file="+filepath.Join(dir, "bme280.txt"))
	require.Contains(t, logs.String(), "line=2")

	logs.Reset()
	_, err = Load(filepath.Join(dir, "absent"), logger)
	require.NoError(t, err)
	require.Contains(t, logs.String(), "dir="+filepath.Join(dir, "absent"))
}

func TestLoad_FallsBackToBuiltin(t *testing.T) {
	table, err := Load(filepath.Join(t.TempDir(), "missing"), nil)
	require.NoError(t, err)
	require.Equal(t, Builtin().Len(), table.Len())

	_, ok := table.Match(reading.Reading{"value": "85"}, "ds18b20")
	require.True(t, ok)
}

func TestLoad_UsesDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "custom.rules", "state:fault:custom\n")

	table, err := Load(dir, nil)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	require.Len(t, table.Definitions(), 1)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
