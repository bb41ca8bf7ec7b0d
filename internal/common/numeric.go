package common

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseNumericOrZero converts a loosely typed request value to a float64.
// Anything that is not a finite number, or a string holding one, becomes 0.
func ParseNumericOrZero(v interface{}) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if n {
			f = 1
		}
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Number is a JSON float that tolerates strings, null and garbage.
// Unparseable values decode as 0 instead of failing the whole body.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		*n = 0
		return nil
	}
	*n = Number(ParseNumericOrZero(raw))
	return nil
}

// Float64 returns the plain value.
func (n Number) Float64() float64 {
	return float64(n)
}
