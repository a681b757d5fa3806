package runtime

import (
	"context"

	"github.com/wasmship/wasmship/errors"
	"github.com/wasmship/wasmship/value"
)

// Call is a validated invocation ready to hand to an engine.
type Call struct {
	Export    string
	Signature FunctionExport
	Params    []value.Value
}

// ResolveExport picks the export to call. An explicit name always wins;
// the module's entry point is consulted only when no name is given.
func ResolveExport(m Module, export string) (string, error) {
	if export != "" {
		return export, nil
	}
	if m.Entry != "" {
		return m.Entry, nil
	}
	return "", errors.NoEntryPoint()
}

// Bind looks export up in catalog, checks the argument count and coerces
// each argument to its declared parameter type.
func Bind(catalog *FunctionExports, export string, args []string) (*Call, error) {
	sig, ok := catalog.Lookup(export)
	if !ok {
		if err := catalog.skippedErr(export); err != nil {
			return nil, err
		}
		return nil, errors.ExportNotFound(export)
	}

	if len(args) != len(sig.Params) {
		return nil, errors.ArityMismatch(export, len(sig.Params), len(args))
	}

	params := make([]value.Value, len(args))
	for i, text := range args {
		v, err := value.Parse(text, sig.Params[i])
		if err != nil {
			return nil, errors.ArgumentFormat(export, i, text, sig.Params[i].String(), causeOf(err))
		}
		params[i] = v
	}

	return &Call{
		Export:    export,
		Signature: sig,
		Params:    params,
	}, nil
}

// causeOf unwraps the parse error to the underlying strconv failure so the
// rebuilt error does not repeat its own message.
func causeOf(err error) error {
	if e, ok := err.(*errors.Error); ok && e.Cause != nil {
		return e.Cause
	}
	return err
}

// CheckResults verifies that every engine result carries its declared type.
func CheckResults(call *Call, results []value.Value) ([]value.Value, error) {
	declared := call.Signature.Results
	if len(results) != len(declared) {
		return nil, errors.New(errors.PhaseDecode, errors.KindResultTypeMismatch).
			Export(call.Export).
			Counts(len(declared), len(results)).
			Detail("declared %d results, engine returned %d", len(declared), len(results)).
			Build()
	}
	for i, r := range results {
		if r.Type() != declared[i] {
			return nil, errors.ResultTypeMismatch(call.Export, i, declared[i].String(), r.Type().String())
		}
	}
	return results, nil
}

// Executor runs a bound call on a fresh engine instance and returns the raw
// results translated into values.
type Executor func(ctx context.Context, call *Call) ([]value.Value, error)

// Invoke drives the engine-agnostic part of Backend.Invoke: resolve the
// export, consult the cached catalog, bind arguments, execute and check
// result types. Nothing reaches exec unless binding succeeded.
func Invoke(ctx context.Context, b Backend, export string, args []string, exec Executor) ([]value.Value, error) {
	name, err := ResolveExport(b.Module(), export)
	if err != nil {
		return nil, err
	}

	catalog, err := b.FunctionExports()
	if err != nil {
		return nil, err
	}

	call, err := Bind(catalog, name, args)
	if err != nil {
		return nil, err
	}

	results, err := exec(ctx, call)
	if err != nil {
		return nil, err
	}
	return CheckResults(call, results)
}
