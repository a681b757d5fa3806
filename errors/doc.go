// Package errors provides structured error types for wasmship.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the context an operator needs to act on a failure: the export
// name, the zero-based argument position, expected and actual argument counts, and the
// cause chain.
//
// Use the convenience constructors for the invocation taxonomy:
//
//	err := errors.ArityMismatch("add", 2, 1)
//	err := errors.ArgumentFormat("add", 1, "x", "i32", cause)
//
// Or use the Builder for anything else:
//
//	err := errors.New(errors.PhaseTransport, errors.KindTransport).
//		Detail("dial %s", addr).
//		Cause(cause).
//		Build()
//
// All errors implement the standard error interface and support errors.Is/As.
// A target with an empty Phase matches any error of the same Kind:
//
//	if errors.Is(err, &errors.Error{Kind: errors.KindExportNotFound}) { ... }
package errors
