package errdef

var builtinDefinitions = []Definition{
	{SensorPattern: "ds18b20", Field: "value", Value: "85", Description: "power-on reset value"},
	{SensorPattern: "ds18b20", Field: "temperature", Value: "85", Description: "power-on reset value"},
	{SensorPattern: "ds18b20", Field: "value", Value: "-127", Description: "sensor disconnected"},
	{SensorPattern: "ds18b20", Field: "temperature", Value: "-127", Description: "sensor disconnected"},
	{SensorPattern: "dht22", Field: "humidity", Value: "0", Description: "read timeout"},
	{SensorPattern: "dht22", Field: "temperature", Value: "-40", Description: "checksum failure"},
	{SensorPattern: "bme280", Field: "pressure", Value: "0", Description: "sensor not responding"},
}

// Builtin returns the small rule set used when no definition directory exists.
func Builtin() *Table {
	t, err := NewTable(builtinDefinitions...)
	if err != nil {
		// The built-in definitions are static and valid.
		panic(err)
	}

	return t
}
