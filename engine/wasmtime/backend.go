//go:build cgo

package wasmtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytecodealliance/wasmtime-go/v14"
	"go.uber.org/zap"

	"github.com/wasmship/wasmship/errors"
	"github.com/wasmship/wasmship/runtime"
	"github.com/wasmship/wasmship/value"
)

// Name is the registry name of the wasmtime backend.
const Name = "wasmtime"

const (
	wasiModule = "wasi_snapshot_preview1"
	pageSize   = 64 * 1024
)

func init() {
	runtime.Register(Name, func(ctx context.Context, m runtime.Module, opts runtime.Options) (runtime.Backend, error) {
		return New(ctx, m, opts)
	})
}

// Backend runs one module on Wasmtime.
type Backend struct {
	engine  *wasmtime.Engine
	store   *wasmtime.Store
	linker  *wasmtime.Linker
	module  *wasmtime.Module
	log     *zap.Logger
	desc    runtime.Module
	catalog runtime.CatalogCache
	mu      sync.Mutex
}

var _ runtime.Backend = (*Backend)(nil)

// New compiles m into a fresh engine and store.
func New(_ context.Context, m runtime.Module, opts runtime.Options) (*Backend, error) {
	log := opts.LoggerOrNop().With(zap.String("engine", Name), zap.String("module", m.Location()))
	start := time.Now()

	cfg := wasmtime.NewConfig()
	cfg.SetWasmThreads(opts.EnableThreads)
	if opts.CacheDir != "" {
		if err := loadCacheConfig(cfg, opts.CacheDir); err != nil {
			return nil, errors.Load("configure compilation cache", err)
		}
	}

	b := &Backend{
		engine: wasmtime.NewEngineWithConfig(cfg),
		log:    log,
		desc:   m,
	}

	module, err := wasmtime.NewModuleFromFile(b.engine, m.Location())
	if err != nil {
		b.release()
		return nil, errors.Load("compile "+m.Location(), err)
	}
	b.module = module

	if err := checkImports(module, opts.WASI); err != nil {
		b.release()
		return nil, err
	}

	b.store = wasmtime.NewStore(b.engine)
	if opts.MemoryLimitPages > 0 {
		b.store.Limiter(int64(opts.MemoryLimitPages)*pageSize, -1, -1, -1, -1)
	}

	b.linker = wasmtime.NewLinker(b.engine)
	if opts.WASI {
		b.store.SetWasi(wasiConfig(opts))
		if err := b.linker.DefineWasi(); err != nil {
			b.release()
			return nil, errors.Load("define WASI", err)
		}
	}

	log.Debug("module compiled", zap.Duration("elapsed", time.Since(start)))
	return b, nil
}

// loadCacheConfig points Wasmtime's cache at dir. Wasmtime only reads cache
// settings from a TOML file, so one is written next to the cache.
func loadCacheConfig(cfg *wasmtime.Config, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, "wasmtime-cache.toml")
	content := fmt.Sprintf("[cache]\nenabled = true\ndirectory = %q\n", dir)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return err
	}
	return cfg.CacheConfigLoad(path)
}

// wasiConfig inherits the process streams the options point at. Wasmtime
// cannot write into arbitrary Go writers.
func wasiConfig(opts runtime.Options) *wasmtime.WasiConfig {
	wc := wasmtime.NewWasiConfig()
	if opts.Stdin == os.Stdin {
		wc.InheritStdin()
	}
	if opts.Stdout == os.Stdout {
		wc.InheritStdout()
	}
	if opts.Stderr == os.Stderr {
		wc.InheritStderr()
	}
	return wc
}

func checkImports(module *wasmtime.Module, wasi bool) error {
	for _, imp := range module.Imports() {
		if wasi && imp.Module() == wasiModule {
			continue
		}
		name := ""
		if n := imp.Name(); n != nil {
			name = *n
		}
		return errors.New(errors.PhaseLoad, errors.KindLoad).
			Detail("unresolved import %s.%s", imp.Module(), name).
			Build()
	}
	return nil
}

func (b *Backend) Module() runtime.Module {
	return b.desc
}

func (b *Backend) FunctionExports() (*runtime.FunctionExports, error) {
	return b.catalog.Get(b.enumerate)
}

func (b *Backend) enumerate() (*runtime.FunctionExports, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.module == nil {
		return nil, errors.InvalidInput(errors.PhaseCatalog, "backend is closed")
	}

	builder := runtime.NewCatalogBuilder()
	for _, exp := range b.module.Exports() {
		ft := exp.Type().FuncType()
		if ft == nil {
			continue
		}
		name := exp.Name()
		params, bad, ok := translate(ft.Params())
		if !ok {
			builder.Skip(name, errors.UnsupportedType(name, bad))
			continue
		}
		results, bad, ok := translate(ft.Results())
		if !ok {
			builder.Skip(name, errors.UnsupportedType(name, bad))
			continue
		}
		builder.Add(name, params, results)
	}
	return builder.Build(), nil
}

func (b *Backend) Invoke(ctx context.Context, export string, args []string) ([]value.Value, error) {
	return runtime.Invoke(ctx, b, export, args, b.execute)
}

func (b *Backend) execute(_ context.Context, call *runtime.Call) ([]value.Value, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.store == nil {
		return nil, errors.InvalidInput(errors.PhaseCall, "backend is closed")
	}

	instance, err := b.linker.Instantiate(b.store, b.module)
	if err != nil {
		return nil, errors.Execution(call.Export, err)
	}

	fn := instance.GetFunc(b.store, call.Export)
	if fn == nil {
		return nil, errors.ExportNotFound(call.Export)
	}

	args := make([]interface{}, len(call.Params))
	for i, p := range call.Params {
		args[i] = toArg(p)
	}

	result, err := fn.Call(b.store, args...)
	if err != nil {
		var werr *wasmtime.Error
		if stderrors.As(err, &werr) {
			if status, ok := werr.ExitStatus(); ok && status == 0 && len(call.Signature.Results) == 0 {
				return []value.Value{}, nil
			}
		}
		return nil, errors.Execution(call.Export, err)
	}

	results, bad, ok := fromResult(result)
	if !ok {
		return nil, errors.New(errors.PhaseDecode, errors.KindResultTypeMismatch).
			Export(call.Export).
			Detail("engine returned %s", bad).
			Build()
	}
	return results, nil
}

// Close drops the store, module and engine. Later calls fail with an
// invalid_input error.
func (b *Backend) Close(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release()
	return nil
}

// release drops every handle. wasmtime-go frees the underlying C objects
// from finalizers, so nothing is reachable through b once this returns.
func (b *Backend) release() {
	b.linker = nil
	b.store = nil
	b.module = nil
	b.engine = nil
}
