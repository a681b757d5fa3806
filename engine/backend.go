package engine

import (
	"context"
	stderrors "errors"
	"os"
	"sort"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wasmship/wasmship/errors"
	"github.com/wasmship/wasmship/runtime"
	"github.com/wasmship/wasmship/value"
)

// Name is the registry name of the wazero backend.
const Name = "wazero"

func init() {
	runtime.Register(Name, func(ctx context.Context, m runtime.Module, opts runtime.Options) (runtime.Backend, error) {
		return New(ctx, m, opts)
	})
}

// Backend runs one module on wazero. The module is compiled once; every
// invocation gets a fresh instance so no state leaks between calls.
type Backend struct {
	engine   *WazeroEngine
	compiled wazero.CompiledModule
	log      *zap.Logger
	opts     runtime.Options
	module   runtime.Module
	catalog  runtime.CatalogCache
}

var _ runtime.Backend = (*Backend)(nil)

// New reads and compiles m. On failure every acquired resource is released.
func New(ctx context.Context, m runtime.Module, opts runtime.Options) (*Backend, error) {
	log := opts.Logger
	if log == nil {
		log = Logger()
	}
	location := m.Location()

	wasmBytes, err := os.ReadFile(location)
	if err != nil {
		return nil, errors.Load("read "+location, err)
	}

	eng, err := NewWazeroEngine(ctx, &Config{
		CacheDir:         opts.CacheDir,
		MemoryLimitPages: opts.MemoryLimitPages,
		EnableThreads:    opts.EnableThreads,
	})
	if err != nil {
		return nil, errors.Load("create engine", err)
	}

	b := &Backend{
		engine: eng,
		log:    log.With(zap.String("engine", Name), zap.String("module", location)),
		opts:   opts,
		module: m,
	}

	if err := b.load(ctx, wasmBytes); err != nil {
		if cerr := eng.Close(ctx); cerr != nil {
			b.log.Warn("release engine after failed load", zap.Error(cerr))
		}
		return nil, err
	}
	return b, nil
}

func (b *Backend) load(ctx context.Context, wasmBytes []byte) error {
	start := time.Now()

	if b.opts.WASI {
		if err := b.engine.InitWASI(ctx); err != nil {
			return errors.Load("init WASI", err)
		}
	}

	compiled, err := b.engine.Compile(ctx, wasmBytes)
	if err != nil {
		return errors.Load("compile "+b.module.Location(), err)
	}
	b.compiled = compiled

	if err := b.checkImports(); err != nil {
		return err
	}

	b.log.Debug("module compiled",
		zap.Int("bytes", len(wasmBytes)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// checkImports rejects modules whose imports no instance could satisfy,
// so the failure surfaces at load rather than on every invocation.
func (b *Backend) checkImports() error {
	for _, def := range b.compiled.ImportedFunctions() {
		moduleName, name, _ := def.Import()
		if moduleName == wasi_snapshot_preview1.ModuleName && b.engine.WASIEnabled() {
			continue
		}
		return errors.New(errors.PhaseLoad, errors.KindLoad).
			Detail("unresolved import %s.%s", moduleName, name).
			Build()
	}
	if mems := b.compiled.ImportedMemories(); len(mems) > 0 {
		moduleName, name, _ := mems[0].Import()
		return errors.New(errors.PhaseLoad, errors.KindLoad).
			Detail("unresolved memory import %s.%s", moduleName, name).
			Build()
	}
	return nil
}

func (b *Backend) Module() runtime.Module {
	return b.module
}

// FunctionExports enumerates function exports on first use. Names are
// sorted because wazero reports exports as a map.
func (b *Backend) FunctionExports() (*runtime.FunctionExports, error) {
	return b.catalog.Get(b.enumerate)
}

func (b *Backend) enumerate() (*runtime.FunctionExports, error) {
	if b.compiled == nil {
		return nil, errors.InvalidInput(errors.PhaseCatalog, "backend is closed")
	}

	defs := b.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	builder := runtime.NewCatalogBuilder()
	for _, name := range names {
		def := defs[name]
		params, bad, ok := translate(def.ParamTypes())
		if !ok {
			b.skip(builder, name, bad)
			continue
		}
		results, bad, ok := translate(def.ResultTypes())
		if !ok {
			b.skip(builder, name, bad)
			continue
		}
		builder.Add(name, params, results)
	}

	catalog := builder.Build()
	b.log.Debug("catalog populated",
		zap.Int("exports", catalog.Len()),
		zap.Int("skipped", len(catalog.Skipped())),
	)
	return catalog, nil
}

func (b *Backend) skip(builder *runtime.CatalogBuilder, name, typ string) {
	b.log.Debug("export skipped", zap.String("export", name), zap.String("type", typ))
	builder.Skip(name, errors.UnsupportedType(name, typ))
}

// Invoke calls export with textual arguments.
func (b *Backend) Invoke(ctx context.Context, export string, args []string) ([]value.Value, error) {
	return runtime.Invoke(ctx, b, export, args, b.execute)
}

func (b *Backend) execute(ctx context.Context, call *runtime.Call) ([]value.Value, error) {
	if b.compiled == nil {
		return nil, errors.InvalidInput(errors.PhaseCall, "backend is closed")
	}

	cfg := newModuleConfig()
	if b.opts.Stdin != nil {
		cfg = cfg.WithStdin(b.opts.Stdin)
	}
	if b.opts.Stdout != nil {
		cfg = cfg.WithStdout(b.opts.Stdout)
	}
	if b.opts.Stderr != nil {
		cfg = cfg.WithStderr(b.opts.Stderr)
	}

	instance, err := b.engine.Instantiate(ctx, b.compiled, cfg)
	if err != nil {
		return nil, errors.Execution(call.Export, err)
	}
	defer func() {
		if cerr := instance.Close(ctx); cerr != nil {
			b.log.Warn("close instance", zap.Error(cerr))
		}
	}()

	fn := instance.ExportedFunction(call.Export)
	if fn == nil {
		return nil, errors.ExportNotFound(call.Export)
	}

	params := make([]uint64, len(call.Params))
	for i, p := range call.Params {
		params[i] = encodeValue(p)
	}

	raw, err := fn.Call(ctx, params...)
	if err != nil {
		var exit *sys.ExitError
		if stderrors.As(err, &exit) && exit.ExitCode() == 0 && len(call.Signature.Results) == 0 {
			return []value.Value{}, nil
		}
		return nil, errors.Execution(call.Export, err)
	}

	resultTypes := fn.Definition().ResultTypes()
	if len(raw) != len(resultTypes) {
		return nil, errors.New(errors.PhaseDecode, errors.KindResultTypeMismatch).
			Export(call.Export).
			Counts(len(resultTypes), len(raw)).
			Detail("engine returned %d values for %d result types", len(raw), len(resultTypes)).
			Build()
	}

	results := make([]value.Value, len(raw))
	for i, r := range raw {
		v, ok := decodeValue(resultTypes[i], r)
		if !ok {
			declared := "?"
			if i < len(call.Signature.Results) {
				declared = call.Signature.Results[i].String()
			}
			return nil, errors.ResultTypeMismatch(call.Export, i, declared, typeName(resultTypes[i]))
		}
		results[i] = v
	}
	return results, nil
}

// newModuleConfig disables the implicit _start call so an export named
// _start runs only when invoked.
func newModuleConfig() wazero.ModuleConfig {
	return wazero.NewModuleConfig().WithStartFunctions()
}

// Close releases the compiled module and the engine.
func (b *Backend) Close(ctx context.Context) error {
	var errs error
	if b.compiled != nil {
		errs = multierr.Append(errs, b.compiled.Close(ctx))
		b.compiled = nil
	}
	if b.engine != nil {
		errs = multierr.Append(errs, b.engine.Close(ctx))
		b.engine = nil
	}
	return errs
}
