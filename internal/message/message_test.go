package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KyleBrandon/w1-reporter/internal/sensor"
)

var (
	addrA = sensor.Address{0x28, 0xFF, 0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC}
	addrB = sensor.Address{0x28, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	addrC = sensor.Address{0x28, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
)

func decode(t *testing.T, body []byte) map[string]map[string]float64 {
	t.Helper()

	var m map[string]map[string]float64
	require.NoError(t, json.Unmarshal(body, &m), string(body))

	return m
}

func TestEncodeNoValidReadings(t *testing.T) {
	tests := map[string][]sensor.Reading{
		"nil":         nil,
		"empty":       {},
		"all invalid": {{Index: 0}, {Index: 1}},
	}

	for name, readings := range tests {
		t.Run(name, func(t *testing.T) {
			body := Encode(readings)

			assert.Equal(t, `{ "readings": {} }`, string(body))
			assert.Empty(t, decode(t, body)["readings"])
		})
	}
}

func TestEncodeSingleReading(t *testing.T) {
	body := Encode([]sensor.Reading{
		{Index: 0, Address: addrA, Valid: true, TemperatureC: 20.5},
	})

	assert.Equal(t, `{ "readings": { "0x28ff123456789abc": 20.50 } }`, string(body))
	assert.Contains(t, string(body), `"0x28ff123456789abc": 20.50`)
	assert.NotContains(t, string(body), ",")
}

func TestEncodeSkipsInvalidAndKeepsOrder(t *testing.T) {
	body := Encode([]sensor.Reading{
		{Index: 0, Address: addrA, Valid: true, TemperatureC: 20.5},
		{Index: 1},
		{Index: 2, Address: addrC, Valid: true, TemperatureC: -0.25},
		{Index: 3, Address: addrB, Valid: true, TemperatureC: 100},
	})

	assert.Equal(t,
		`{ "readings": { "0x28ff123456789abc": 20.50, "0x280a0b0c0d0e0f10": -0.25, "0x2801020304050607": 100.00 } }`,
		string(body))

	m := decode(t, body)["readings"]
	assert.Len(t, m, 3)
	assert.Equal(t, 20.5, m[addrA.Compact()])
}

func TestEncodeSecondDeviceFailed(t *testing.T) {
	body := Encode([]sensor.Reading{
		{Index: 0, Address: addrA, Valid: true, TemperatureC: 20.5},
		{Index: 1},
	})

	m := decode(t, body)["readings"]
	assert.Equal(t, map[string]float64{"0x28ff123456789abc": 20.5}, m)
}
