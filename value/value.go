package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wasmship/wasmship/errors"
)

// ValueType identifies the kind of a Value. The set is closed: every
// switch over ValueType in this module is exhaustive.
type ValueType uint8

const (
	I32Type ValueType = iota + 1
	I64Type
	F32Type
	F64Type
)

// Types lists every supported ValueType.
var Types = []ValueType{I32Type, I64Type, F32Type, F64Type}

func (t ValueType) String() string {
	switch t {
	case I32Type:
		return "i32"
	case I64Type:
		return "i64"
	case F32Type:
		return "f32"
	case F64Type:
		return "f64"
	default:
		return fmt.Sprintf("ValueType(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the supported types.
func (t ValueType) Valid() bool {
	switch t {
	case I32Type, I64Type, F32Type, F64Type:
		return true
	default:
		return false
	}
}

// ParseValueType parses the text form produced by ValueType.String.
func ParseValueType(s string) (ValueType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "i32":
		return I32Type, nil
	case "i64":
		return I64Type, nil
	case "f32":
		return F32Type, nil
	case "f64":
		return F64Type, nil
	default:
		return 0, errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("unknown value type %q", s))
	}
}

func (t ValueType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, errors.InvalidInput(errors.PhaseEncode, t.String())
	}
	return []byte(t.String()), nil
}

func (t *ValueType) UnmarshalText(b []byte) error {
	parsed, err := ParseValueType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value is an immutable tagged value. Floats are stored as raw IEEE 754
// bits so NaN payloads survive.
type Value struct {
	typ  ValueType
	bits uint64
}

func I32(v int32) Value {
	return Value{typ: I32Type, bits: uint64(uint32(v))}
}

func I64(v int64) Value {
	return Value{typ: I64Type, bits: uint64(v)}
}

func F32(v float32) Value {
	return Value{typ: F32Type, bits: uint64(math.Float32bits(v))}
}

func F64(v float64) Value {
	return Value{typ: F64Type, bits: math.Float64bits(v)}
}

// F32Bits builds an f32 value from its raw bit pattern.
func F32Bits(bits uint32) Value {
	return Value{typ: F32Type, bits: uint64(bits)}
}

// F64Bits builds an f64 value from its raw bit pattern.
func F64Bits(bits uint64) Value {
	return Value{typ: F64Type, bits: bits}
}

// Type returns the tag of v.
func (v Value) Type() ValueType {
	return v.typ
}

// Bits returns the raw payload: two's complement bits for integers (i32
// zero-extended) and IEEE 754 bits for floats.
func (v Value) Bits() uint64 {
	return v.bits
}

func (v Value) AsI32() (int32, bool) {
	return int32(uint32(v.bits)), v.typ == I32Type
}

func (v Value) AsI64() (int64, bool) {
	return int64(v.bits), v.typ == I64Type
}

func (v Value) AsF32() (float32, bool) {
	return math.Float32frombits(uint32(v.bits)), v.typ == F32Type
}

func (v Value) AsF64() (float64, bool) {
	return math.Float64frombits(v.bits), v.typ == F64Type
}

// Interface returns v as the matching Go type.
func (v Value) Interface() any {
	switch v.typ {
	case I32Type:
		n, _ := v.AsI32()
		return n
	case I64Type:
		n, _ := v.AsI64()
		return n
	case F32Type:
		f, _ := v.AsF32()
		return f
	case F64Type:
		f, _ := v.AsF64()
		return f
	default:
		return nil
	}
}

// String renders v so that Parse(v.String(), v.Type()) == v.
func (v Value) String() string {
	switch v.typ {
	case I32Type:
		n, _ := v.AsI32()
		return strconv.FormatInt(int64(n), 10)
	case I64Type:
		n, _ := v.AsI64()
		return strconv.FormatInt(n, 10)
	case F32Type:
		return formatFloat(v.bits, f32Layout)
	case F64Type:
		return formatFloat(v.bits, f64Layout)
	default:
		return "<invalid>"
	}
}

type valueJSON struct {
	Type  ValueType `json:"type"`
	Value string    `json:"value"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(valueJSON{Type: v.typ, Value: v.String()})
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw valueJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := Parse(raw.Value, raw.Type)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
