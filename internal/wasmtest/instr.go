package wasmtest

import "math"

// Body concatenates instruction sequences.
func Body(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func Op(ops ...byte) []byte {
	return ops
}

func LocalGet(idx uint32) []byte {
	return appendU32([]byte{OpLocalGet}, idx)
}

func Call(idx uint32) []byte {
	return appendU32([]byte{OpCall}, idx)
}

func I32Const(v int32) []byte {
	return appendS64([]byte{OpI32Const}, int64(v))
}

func I64Const(v int64) []byte {
	return appendS64([]byte{OpI64Const}, v)
}

func F32Const(v float32) []byte {
	b := math.Float32bits(v)
	return []byte{OpF32Const, byte(b), byte(b >> 8), byte(b >> 16), byte(b >> 24)}
}

func F64Const(v float64) []byte {
	b := math.Float64bits(v)
	out := []byte{OpF64Const}
	for i := 0; i < 8; i++ {
		out = append(out, byte(b>>(8*i)))
	}
	return out
}

func appendU32(out []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func appendS64(out []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
