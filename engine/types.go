package engine

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wasmship/wasmship/value"
)

// valueType maps a wazero value type onto the closed value set.
func valueType(t api.ValueType) (value.ValueType, bool) {
	switch t {
	case api.ValueTypeI32:
		return value.I32Type, true
	case api.ValueTypeI64:
		return value.I64Type, true
	case api.ValueTypeF32:
		return value.F32Type, true
	case api.ValueTypeF64:
		return value.F64Type, true
	default:
		return 0, false
	}
}

// typeName names t for error messages. wazero only names the types its
// api exposes, so anything else is rendered by its encoding byte.
func typeName(t api.ValueType) string {
	switch t {
	case 0x7b:
		return "v128"
	case 0x70:
		return "funcref"
	}
	if name := api.ValueTypeName(t); name != "unknown" {
		return name
	}
	return fmt.Sprintf("0x%02x", byte(t))
}

// translate converts a list of wazero types. On failure it returns the
// name of the first type with no representation.
func translate(types []api.ValueType) ([]value.ValueType, string, bool) {
	out := make([]value.ValueType, len(types))
	for i, t := range types {
		vt, ok := valueType(t)
		if !ok {
			return nil, typeName(t), false
		}
		out[i] = vt
	}
	return out, "", true
}

// encodeValue lowers v onto the wazero stack representation.
func encodeValue(v value.Value) uint64 {
	switch v.Type() {
	case value.I32Type:
		n, _ := v.AsI32()
		return api.EncodeI32(n)
	case value.I64Type:
		n, _ := v.AsI64()
		return api.EncodeI64(n)
	case value.F32Type:
		// raw bits keep NaN payloads intact
		return v.Bits()
	case value.F64Type:
		return v.Bits()
	default:
		return 0
	}
}

// decodeValue lifts a raw stack slot of type t.
func decodeValue(t api.ValueType, raw uint64) (value.Value, bool) {
	switch t {
	case api.ValueTypeI32:
		return value.I32(api.DecodeI32(raw)), true
	case api.ValueTypeI64:
		return value.I64(int64(raw)), true
	case api.ValueTypeF32:
		return value.F32Bits(uint32(raw)), true
	case api.ValueTypeF64:
		return value.F64Bits(raw), true
	default:
		return value.Value{}, false
	}
}
