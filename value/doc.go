// Package value defines the values that cross the boundary between operator
// supplied text and a WebAssembly module's typed calling convention.
//
// The set of kinds is closed and mirrors the WebAssembly core numeric types:
//
//	ValueType   Go type    Text form
//	─────────────────────────────────────────────
//	i32         int32      signed decimal
//	i64         int64      signed decimal
//	f32         float32    Go float syntax, inf, nan, nan:0x<payload>
//	f64         float64    Go float syntax, inf, nan, nan:0x<payload>
//
// Rendering and parsing are inverse operations:
//
//	v := value.F32(1.5)
//	w, _ := value.Parse(v.String(), v.Type()) // w == v
//
// Adding a kind means adding a constant and extending the switches in this
// package and the engine type translation, nothing else.
package value
