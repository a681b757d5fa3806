package main

import (
	"context"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wasmship/wasmship/client"
	"github.com/wasmship/wasmship/config"
	"github.com/wasmship/wasmship/errors"
	"github.com/wasmship/wasmship/internal/logging"
	"github.com/wasmship/wasmship/runtime"
	"github.com/wasmship/wasmship/server"
	"github.com/wasmship/wasmship/value"
)

// dispatcher carries commands to whoever runs them: a wasmshipd daemon or
// an Invoker inside this process.
type dispatcher interface {
	Invoke(ctx context.Context, cmd runtime.Command) ([]value.Value, error)
	Exports(ctx context.Context, module string) (*server.ExportsReply, error)
	List(ctx context.Context, kind string) ([]string, error)
	Close(ctx context.Context) error
}

var (
	_ dispatcher = (*remoteDispatcher)(nil)
	_ dispatcher = (*localDispatcher)(nil)
)

type remoteDispatcher struct {
	*client.Client
}

func (remoteDispatcher) Close(context.Context) error {
	return nil
}

type localDispatcher struct {
	invoker *runtime.Invoker
	modules []string
	logs    io.Closer
}

// newLocalDispatcher builds an in-process Invoker from cfg. Log output goes
// to the configured file only unless the config asks for console logs.
func newLocalDispatcher(cfg *config.Config, console bool) (*localDispatcher, error) {
	logCfg := cfg.Log
	if !console {
		logCfg.DisableConsole = true
	}
	log, logs, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	opts := cfg.BackendOptions()
	opts.Logger = log
	inv := runtime.NewInvoker(cfg.Resolver(), runtime.InvokerOptions{
		Logger:  log,
		Engine:  cfg.Engine,
		Backend: opts,
	})
	log.Debug("local dispatcher ready", zap.String("engine", inv.Engine()))

	return &localDispatcher{
		invoker: inv,
		modules: cfg.ModuleNames(),
		logs:    logs,
	}, nil
}

func (d *localDispatcher) Invoke(ctx context.Context, cmd runtime.Command) ([]value.Value, error) {
	return d.invoker.Invoke(ctx, cmd)
}

func (d *localDispatcher) Exports(ctx context.Context, module string) (*server.ExportsReply, error) {
	catalog, err := d.invoker.Exports(ctx, module)
	if err != nil {
		return nil, err
	}
	return server.NewExportsReply(catalog), nil
}

func (d *localDispatcher) List(_ context.Context, kind string) ([]string, error) {
	switch kind {
	case server.ListModules, "":
		return d.modules, nil
	case server.ListInstances:
		return d.invoker.Loaded(), nil
	default:
		return nil, errors.InvalidInput(errors.PhaseTransport, "unknown list kind "+kind)
	}
}

func (d *localDispatcher) Close(ctx context.Context) error {
	return multierr.Append(d.invoker.Close(ctx), d.logs.Close())
}
