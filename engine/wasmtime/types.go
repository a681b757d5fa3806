//go:build cgo

package wasmtime

import (
	"fmt"

	"github.com/bytecodealliance/wasmtime-go/v14"

	"github.com/wasmship/wasmship/value"
)

func valueType(t *wasmtime.ValType) (value.ValueType, bool) {
	switch t.Kind() {
	case wasmtime.KindI32:
		return value.I32Type, true
	case wasmtime.KindI64:
		return value.I64Type, true
	case wasmtime.KindF32:
		return value.F32Type, true
	case wasmtime.KindF64:
		return value.F64Type, true
	default:
		return 0, false
	}
}

// kindV128 is the kind the C API reports for v128. wasmtime-go has no
// constant for it.
const kindV128 wasmtime.ValKind = 4

// kindName names k for error messages. ValKind.String panics on kinds
// wasmtime-go does not know, so every name is spelled out here.
func kindName(k wasmtime.ValKind) string {
	switch k {
	case wasmtime.KindI32:
		return "i32"
	case wasmtime.KindI64:
		return "i64"
	case wasmtime.KindF32:
		return "f32"
	case wasmtime.KindF64:
		return "f64"
	case wasmtime.KindExternref:
		return "externref"
	case wasmtime.KindFuncref:
		return "funcref"
	case kindV128:
		return "v128"
	}
	return fmt.Sprintf("0x%02x", uint8(k))
}

func translate(types []*wasmtime.ValType) ([]value.ValueType, string, bool) {
	out := make([]value.ValueType, len(types))
	for i, t := range types {
		vt, ok := valueType(t)
		if !ok {
			return nil, kindName(t.Kind()), false
		}
		out[i] = vt
	}
	return out, "", true
}

// toArg converts v to the Go type wasmtime's Func.Call expects.
func toArg(v value.Value) interface{} {
	switch v.Type() {
	case value.I32Type:
		n, _ := v.AsI32()
		return n
	case value.I64Type:
		n, _ := v.AsI64()
		return n
	case value.F32Type:
		f, _ := v.AsF32()
		return f
	case value.F64Type:
		f, _ := v.AsF64()
		return f
	default:
		return nil
	}
}

// fromResult flattens Func.Call output: nil for no results, the bare
// value for one, []wasmtime.Val for several.
func fromResult(result interface{}) ([]value.Value, string, bool) {
	switch r := result.(type) {
	case nil:
		return []value.Value{}, "", true
	case []wasmtime.Val:
		out := make([]value.Value, len(r))
		for i, v := range r {
			converted, name, ok := fromScalar(v.Get())
			if !ok {
				return nil, name, false
			}
			out[i] = converted
		}
		return out, "", true
	default:
		v, name, ok := fromScalar(r)
		if !ok {
			return nil, name, false
		}
		return []value.Value{v}, "", true
	}
}

func fromScalar(r interface{}) (value.Value, string, bool) {
	switch n := r.(type) {
	case int32:
		return value.I32(n), "", true
	case int64:
		return value.I64(n), "", true
	case float32:
		return value.F32(n), "", true
	case float64:
		return value.F64(n), "", true
	default:
		return value.Value{}, typeOf(r), false
	}
}

func typeOf(r interface{}) string {
	switch r.(type) {
	case *wasmtime.Func:
		return "funcref"
	default:
		return "externref"
	}
}
