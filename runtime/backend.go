package runtime

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wasmship/wasmship/errors"
	"github.com/wasmship/wasmship/value"
)

// DefaultEngine is used when no engine name is given.
const DefaultEngine = "wazero"

//go:generate go run go.uber.org/mock/mockgen -package=runtimemock -destination=runtimemock/backend.go . Backend

// Backend owns one loaded module and its execution context. A Backend is
// not safe for concurrent invocations; callers needing concurrency create
// one backend per goroutine.
type Backend interface {
	// Module returns the descriptor the backend was loaded from.
	Module() Module
	// FunctionExports enumerates function exports once and returns the
	// cached catalog afterwards.
	FunctionExports() (*FunctionExports, error)
	// Invoke calls export with textual arguments. An empty export selects
	// the module's default entry point.
	Invoke(ctx context.Context, export string, args []string) ([]value.Value, error)
	// Close releases the compiled module and execution store.
	Close(ctx context.Context) error
}

// Options are engine-agnostic settings passed to every Factory.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
	// CacheDir enables an on-disk compilation cache when the engine has one.
	CacheDir string
	// MemoryLimitPages caps linear memory in 64KiB pages. 0 keeps the engine default.
	MemoryLimitPages uint32
	// WASI makes wasi_snapshot_preview1 imports available to the module.
	WASI bool
	// EnableThreads turns on the threads proposal where supported.
	EnableThreads bool
}

// LoggerOrNop returns the configured logger or a no-op one.
func (o Options) LoggerOrNop() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Factory loads and compiles m. It either returns a fully usable backend or
// an error with every acquired resource released.
type Factory func(ctx context.Context, m Module, opts Options) (Backend, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes an engine available under name. It panics when the name
// is taken.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if factory == nil {
		panic("runtime: Register factory is nil")
	}
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("runtime: engine %s already registered", name))
	}
	factories[name] = factory
}

// Engines returns the sorted names of registered engines.
func Engines() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBackend loads m with the named engine.
func NewBackend(ctx context.Context, engine string, m Module, opts Options) (Backend, error) {
	if engine == "" {
		engine = DefaultEngine
	}

	factoriesMu.RLock()
	factory, ok := factories[engine]
	factoriesMu.RUnlock()
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "engine", engine)
	}

	b, err := factory(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	return b, nil
}
