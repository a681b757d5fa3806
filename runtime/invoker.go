package runtime

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wasmship/wasmship/errors"
	"github.com/wasmship/wasmship/value"
)

// Command is a fully parsed request: invoke Export of Module with Args.
// An empty Export selects the module's default entry point.
type Command struct {
	Module string   `json:"module"`
	Export string   `json:"export,omitempty"`
	Args   []string `json:"args"`
}

// InvokerOptions configure an Invoker.
type InvokerOptions struct {
	Logger  *zap.Logger
	Metrics *Metrics
	// Factory overrides the registered engine, mostly for tests.
	Factory Factory
	// Engine names a registered engine. Empty selects DefaultEngine.
	Engine  string
	Backend Options
}

// Invoker routes commands to one backend per module reference. Backends are
// created on first use and reused until unloaded. Calls against the same
// backend are serialized.
type Invoker struct {
	resolver ModuleResolver
	log      *zap.Logger
	metrics  *Metrics
	factory  Factory
	slots    map[string]*slot
	engine   string
	opts     Options
	mu       sync.Mutex
	closed   bool
}

type slot struct {
	backend Backend
	mu      sync.Mutex
	ready   atomic.Bool
	dead    bool
}

func NewInvoker(resolver ModuleResolver, opts InvokerOptions) *Invoker {
	engine := opts.Engine
	if engine == "" {
		engine = DefaultEngine
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	backendOpts := opts.Backend
	if backendOpts.Logger == nil {
		backendOpts.Logger = log
	}
	return &Invoker{
		resolver: resolver,
		log:      log,
		metrics:  opts.Metrics,
		factory:  opts.Factory,
		slots:    make(map[string]*slot),
		engine:   engine,
		opts:     backendOpts,
	}
}

// Engine returns the engine name new backends are created with.
func (i *Invoker) Engine() string {
	return i.engine
}

// Invoke runs cmd and returns the typed results.
func (i *Invoker) Invoke(ctx context.Context, cmd Command) ([]value.Value, error) {
	start := time.Now()
	results, err := i.invoke(ctx, cmd)
	i.metrics.observeInvocation(i.engine, err, time.Since(start))

	if err != nil {
		i.log.Info("invocation failed",
			zap.String("module", cmd.Module),
			zap.String("export", cmd.Export),
			zap.Error(err),
		)
		return nil, err
	}
	i.log.Debug("invocation succeeded",
		zap.String("module", cmd.Module),
		zap.String("export", cmd.Export),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}

func (i *Invoker) invoke(ctx context.Context, cmd Command) ([]value.Value, error) {
	s, err := i.acquire(ctx, cmd.Module)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return s.backend.Invoke(ctx, cmd.Export, cmd.Args)
}

// Exports returns the catalog of the module behind ref, loading it if needed.
func (i *Invoker) Exports(ctx context.Context, ref string) (*FunctionExports, error) {
	s, err := i.acquire(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return s.backend.FunctionExports()
}

// Loaded returns the sorted references that currently own a backend.
func (i *Invoker) Loaded() []string {
	i.mu.Lock()
	defer i.mu.Unlock()

	refs := make([]string, 0, len(i.slots))
	for ref, s := range i.slots {
		if s.ready.Load() {
			refs = append(refs, ref)
		}
	}
	sort.Strings(refs)
	return refs
}

// Unload closes the backend behind ref. Unknown references are ignored.
func (i *Invoker) Unload(ctx context.Context, ref string) error {
	i.mu.Lock()
	s, ok := i.slots[ref]
	if ok {
		delete(i.slots, ref)
	}
	i.mu.Unlock()

	if !ok {
		return nil
	}
	return i.release(ctx, ref, s)
}

// Close releases every backend. The Invoker cannot be used afterwards.
func (i *Invoker) Close(ctx context.Context) error {
	i.mu.Lock()
	slots := i.slots
	i.slots = make(map[string]*slot)
	i.closed = true
	i.mu.Unlock()

	var errs error
	for ref, s := range slots {
		errs = multierr.Append(errs, i.release(ctx, ref, s))
	}
	return errs
}

func (i *Invoker) release(ctx context.Context, ref string, s *slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dead = true
	if s.backend == nil {
		return nil
	}
	err := s.backend.Close(ctx)
	s.backend = nil
	s.ready.Store(false)
	i.metrics.backendUnloaded()
	i.log.Debug("backend unloaded", zap.String("module", ref))
	return err
}

// acquire returns the slot for ref with its lock held and a live backend.
func (i *Invoker) acquire(ctx context.Context, ref string) (*slot, error) {
	for {
		i.mu.Lock()
		if i.closed {
			i.mu.Unlock()
			return nil, errors.InvalidInput(errors.PhaseLoad, "invoker is closed")
		}
		s, ok := i.slots[ref]
		if !ok {
			s = &slot{}
			i.slots[ref] = s
		}
		i.mu.Unlock()

		s.mu.Lock()
		if s.dead {
			s.mu.Unlock()
			continue
		}
		if s.backend != nil {
			return s, nil
		}

		b, err := i.load(ctx, ref)
		if err != nil {
			s.dead = true
			s.mu.Unlock()
			i.forget(ref, s)
			return nil, err
		}
		s.backend = b
		s.ready.Store(true)
		i.metrics.backendLoaded()
		return s, nil
	}
}

func (i *Invoker) forget(ref string, s *slot) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.slots[ref] == s {
		delete(i.slots, ref)
	}
}

func (i *Invoker) load(ctx context.Context, ref string) (Backend, error) {
	m, err := i.resolver.Resolve(ref)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var b Backend
	if i.factory != nil {
		b, err = i.factory(ctx, m, i.opts)
	} else {
		b, err = NewBackend(ctx, i.engine, m, i.opts)
	}
	if err != nil {
		i.log.Warn("backend load failed",
			zap.String("module", ref),
			zap.String("location", m.Location()),
			zap.Error(err),
		)
		return nil, err
	}

	i.log.Info("backend loaded",
		zap.String("module", ref),
		zap.String("engine", i.engine),
		zap.String("location", m.Location()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return b, nil
}
