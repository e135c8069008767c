package message

import (
	"bytes"
	"strconv"

	"github.com/KyleBrandon/w1-reporter/internal/sensor"
)

const (
	ContentType = "application/json"

	// temperatures are reported with two decimal places
	temperaturePrecision = 2
)

// Encode builds the report body from the valid readings, in index order.
//
//	{ "readings": { "0x28ff123456789abc": 20.50, "0x2801020304050607": 19.75 } }
//
// With no valid readings the result is { "readings": {} }.
func Encode(readings []sensor.Reading) []byte {
	var buf bytes.Buffer

	buf.WriteString(`{ "readings": {`)

	n := 0
	for _, r := range readings {
		if !r.Valid {
			continue
		}

		if n > 0 {
			buf.WriteString(",")
		}
		buf.WriteString(` "`)
		buf.WriteString(r.Address.Compact())
		buf.WriteString(`": `)
		buf.WriteString(strconv.FormatFloat(r.TemperatureC, 'f', temperaturePrecision, 64))
		n++
	}

	if n > 0 {
		buf.WriteString(" ")
	}
	buf.WriteString("} }")

	return buf.Bytes()
}
