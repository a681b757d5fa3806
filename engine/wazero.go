package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/multierr"
)

// WazeroEngine owns one wazero runtime and its optional compilation cache.
type WazeroEngine struct {
	runtime      wazero.Runtime
	cache        wazero.CompilationCache
	wasiInitMu   sync.Mutex
	wasiInitDone atomic.Bool
}

// Config holds configuration for engine creation
type Config struct {
	// CacheDir persists compiled code across processes. Empty disables the cache.
	CacheDir string

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// EnableThreads enables the WebAssembly threads proposal (experimental).
	EnableThreads bool
}

// NewWazeroEngine creates a new engine. A nil cfg uses wazero defaults.
func NewWazeroEngine(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	e := &WazeroEngine{}

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.EnableThreads {
			runtimeCfg = runtimeCfg.WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads)
		}
		if cfg.CacheDir != "" {
			cache, err := wazero.NewCompilationCacheWithDir(cfg.CacheDir)
			if err != nil {
				return nil, fmt.Errorf("open compilation cache %s: %w", cfg.CacheDir, err)
			}
			e.cache = cache
			runtimeCfg = runtimeCfg.WithCompilationCache(cache)
		}
	}

	e.runtime = wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return e, nil
}

// InitWASI instantiates wasi_snapshot_preview1 into this engine's runtime.
// Safe for concurrent calls.
func (e *WazeroEngine) InitWASI(ctx context.Context) error {
	if e.wasiInitDone.Load() {
		return nil
	}

	e.wasiInitMu.Lock()
	defer e.wasiInitMu.Unlock()

	if e.wasiInitDone.Load() {
		return nil
	}

	if e.runtime.Module(wasi_snapshot_preview1.ModuleName) == nil {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, e.runtime); err != nil {
			return fmt.Errorf("instantiate WASI: %w", err)
		}
	}

	e.wasiInitDone.Store(true)
	return nil
}

// WASIEnabled reports whether InitWASI has succeeded.
func (e *WazeroEngine) WASIEnabled() bool {
	return e.wasiInitDone.Load()
}

// Compile validates and compiles a module binary.
func (e *WazeroEngine) Compile(ctx context.Context, wasmBytes []byte) (wazero.CompiledModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile failed: %w", err)
	}
	return compiled, nil
}

// Instantiate creates an anonymous instance of compiled. Anonymous
// instances never collide, so one compiled module can be instantiated any
// number of times.
func (e *WazeroEngine) Instantiate(ctx context.Context, compiled wazero.CompiledModule, cfg wazero.ModuleConfig) (api.Module, error) {
	return e.runtime.InstantiateModule(ctx, compiled, cfg.WithName(""))
}

// Close releases the runtime, every module compiled by it and the cache.
func (e *WazeroEngine) Close(ctx context.Context) error {
	var errs error
	if e.runtime != nil {
		errs = multierr.Append(errs, e.runtime.Close(ctx))
		e.runtime = nil
	}
	if e.cache != nil {
		errs = multierr.Append(errs, e.cache.Close(ctx))
		e.cache = nil
	}
	return errs
}
