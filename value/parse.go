package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wasmship/wasmship/errors"
)

// Parse converts text into a Value of type t. Integers are signed decimal;
// floats accept Go float syntax plus inf, nan and nan:0x<payload>.
func Parse(text string, t ValueType) (Value, error) {
	switch t {
	case I32Type:
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return Value{}, formatError(text, t, err)
		}
		return I32(int32(n)), nil
	case I64Type:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, formatError(text, t, err)
		}
		return I64(n), nil
	case F32Type:
		bits, err := parseFloat(text, f32Layout)
		if err != nil {
			return Value{}, formatError(text, t, err)
		}
		return F32Bits(uint32(bits)), nil
	case F64Type:
		bits, err := parseFloat(text, f64Layout)
		if err != nil {
			return Value{}, formatError(text, t, err)
		}
		return F64Bits(bits), nil
	default:
		return Value{}, errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("cannot parse into %s", t))
	}
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(text string, t ValueType) Value {
	v, err := Parse(text, t)
	if err != nil {
		panic(err)
	}
	return v
}

func formatError(text string, t ValueType, cause error) *errors.Error {
	return errors.New(errors.PhaseEncode, errors.KindArgumentFormat).
		Detail("cannot parse %q as %s", text, t).
		Value(text).
		Cause(cause).
		Build()
}

type floatLayout struct {
	bitSize  int
	mantBits uint
	expBits  uint
}

var (
	f32Layout = floatLayout{bitSize: 32, mantBits: 23, expBits: 8}
	f64Layout = floatLayout{bitSize: 64, mantBits: 52, expBits: 11}
)

func (l floatLayout) signBit() uint64 { return 1 << (l.mantBits + l.expBits) }
func (l floatLayout) expMask() uint64 { return ((1 << l.expBits) - 1) << l.mantBits }
func (l floatLayout) mantMask() uint64 {
	return (1 << l.mantBits) - 1
}
func (l floatLayout) canonicalNaN() uint64 { return 1 << (l.mantBits - 1) }

func (l floatLayout) toBits(f float64) uint64 {
	if l.bitSize == 32 {
		return uint64(math.Float32bits(float32(f)))
	}
	return math.Float64bits(f)
}

func (l floatLayout) fromBits(bits uint64) float64 {
	if l.bitSize == 32 {
		return float64(math.Float32frombits(uint32(bits)))
	}
	return math.Float64frombits(bits)
}

func formatFloat(bits uint64, l floatLayout) string {
	sign := ""
	if bits&l.signBit() != 0 {
		sign = "-"
	}
	mant := bits & l.mantMask()
	if bits&l.expMask() == l.expMask() {
		switch {
		case mant == 0:
			return sign + "inf"
		case mant == l.canonicalNaN():
			return sign + "nan"
		default:
			return fmt.Sprintf("%snan:0x%x", sign, mant)
		}
	}
	return strconv.FormatFloat(l.fromBits(bits), 'g', -1, l.bitSize)
}

func parseFloat(text string, l floatLayout) (uint64, error) {
	body := strings.ToLower(text)
	var sign uint64
	switch {
	case strings.HasPrefix(body, "-"):
		sign = l.signBit()
		body = body[1:]
	case strings.HasPrefix(body, "+"):
		body = body[1:]
	}

	if body == "nan" {
		return sign | l.expMask() | l.canonicalNaN(), nil
	}
	if payload, ok := strings.CutPrefix(body, "nan:0x"); ok {
		mant, err := strconv.ParseUint(payload, 16, int(l.mantBits))
		if err != nil {
			return 0, err
		}
		if mant == 0 {
			return 0, fmt.Errorf("nan payload must be non-zero")
		}
		return sign | l.expMask() | mant, nil
	}

	f, err := strconv.ParseFloat(text, l.bitSize)
	if err != nil {
		return 0, err
	}
	return l.toBits(f), nil
}
