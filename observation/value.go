package observation

import (
	"encoding/json"
	"strconv"

	"github.com/BaSui01/memgraph/types"
)

// ValueKind discriminates the tagged union of observation values.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBool
	ValueJSON
)

// Value is a typed observation value. The store only ever holds the encoded
// string form; structured values cross the serialization boundary here, not
// inside the graph.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	raw  string
}

// String builds a plain string value.
func String(s string) Value {
	return Value{kind: ValueString, str: s}
}

// Number builds a numeric value.
func Number(f float64) Value {
	return Value{kind: ValueNumber, num: f}
}

// Bool builds a boolean value.
func Bool(b bool) Value {
	return Value{kind: ValueBool, b: b}
}

// JSON builds a structured value by JSON-encoding v. Raw untyped objects are
// never handed to the store.
func JSON(v interface{}) (Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Value{}, types.NewError(types.ErrMalformedObservation, "value is not JSON-serializable").WithCause(err)
	}
	return Value{kind: ValueJSON, raw: string(data)}, nil
}

// Kind returns the union tag.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Encode returns the string form stored and formatted for this value.
func (v Value) Encode() string {
	switch v.kind {
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.b)
	case ValueJSON:
		return v.raw
	default:
		return v.str
	}
}
