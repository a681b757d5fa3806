// Package engine runs modules on wazero, a pure Go WebAssembly runtime.
//
// Importing the package registers the "wazero" backend with the runtime
// registry. It is the default engine.
//
// # Architecture
//
//	WazeroEngine  - owns a wazero runtime, optional compilation cache and WASI host module
//	Backend       - one compiled module plus its export catalog
//
// # Invocation Flow
//
//  1. New reads the module file, compiles it and rejects unresolvable imports
//  2. FunctionExports translates exported signatures on first use
//  3. Invoke binds text arguments, instantiates an anonymous instance,
//     calls the export and lifts the raw results
//  4. The instance is closed before Invoke returns
//
// # Type Mapping
//
//	wazero type       value type
//	─────────────────────────────
//	ValueTypeI32      I32Type
//	ValueTypeI64      I64Type
//	ValueTypeF32      F32Type
//	ValueTypeF64      F64Type
//	externref, v128   unsupported, export skipped
//
// Floats travel as raw bits in both directions so NaN payloads survive.
package engine
