// Package runtime invokes exports of compiled WebAssembly modules with
// textual arguments and returns typed results.
//
// # Quick Start
//
//	ctx := context.Background()
//	m := runtime.ModuleFromFile("adder.wasm", "add")
//	b, err := runtime.NewBackend(ctx, runtime.DefaultEngine, m, runtime.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close(ctx)
//
//	results, err := b.Invoke(ctx, "", []string{"2", "3"})
//	fmt.Println(results[0]) // 5
//
// Engines register themselves by name from an init function, so the
// engine package must be imported for its side effect:
//
//	import _ "github.com/wasmship/wasmship/engine"
//
// # Catalog
//
// Every backend enumerates the module's function exports once and keeps
// the resulting FunctionExports for its lifetime. Exports whose signature
// uses a type outside i32, i64, f32 and f64 are recorded as skipped;
// invoking one returns an unsupported_type error.
//
// # Invocation
//
// Invoke resolves the export (explicit name, then the module's entry
// point), checks arity, parses each argument with value.Parse, runs the
// call on a fresh instance and verifies every result against the declared
// signature. Argument problems never reach the engine.
//
// # Invoker
//
// Invoker keeps one backend per module reference and serializes calls
// against it:
//
//	inv := runtime.NewInvoker(resolver, runtime.InvokerOptions{Logger: log})
//	defer inv.Close(ctx)
//	results, err := inv.Invoke(ctx, runtime.Command{Module: "adder", Args: []string{"2", "3"}})
package runtime
