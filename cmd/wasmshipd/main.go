// Command wasmshipd loads the modules named in its config on demand and
// serves their exports over JSON-RPC until SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wasmship/wasmship/config"
	"github.com/wasmship/wasmship/engine"
	"github.com/wasmship/wasmship/internal/logging"
	"github.com/wasmship/wasmship/runtime"
	"github.com/wasmship/wasmship/server"
)

func main() {
	parser := argparse.NewParser("wasmshipd", "Serve WebAssembly module exports over JSON-RPC")
	cfgPath := parser.String("c", "config", &argparse.Options{
		Help:     "path to the wasmship YAML config",
		Required: true,
	})
	listen := parser.String("", "listen", &argparse.Options{
		Help: "listen address, overrides server.listen",
	})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(2)
	}

	cfg, err := loadConfig(*cfgPath, *listen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, logs, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	engine.SetLogger(log.Named("engine"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = serve(ctx, cfg, log, nil)
	cancel()
	if err != nil {
		log.Error("wasmshipd stopped", zap.Error(err))
	}
	_ = logs.Close()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads path and applies a non-empty listen override, which is
// validated like the file's own value.
func loadConfig(path, listen string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if listen == "" {
		return cfg, nil
	}
	cfg.Server.Listen = listen
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serve runs the daemon until ctx is done. ready, when set, receives the
// bound address once the listener is open.
func serve(ctx context.Context, cfg *config.Config, log *zap.Logger, ready func(net.Addr)) (err error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	metrics, err := runtime.NewMetrics(registry)
	if err != nil {
		return err
	}

	opts := cfg.BackendOptions()
	opts.Logger = log
	inv := runtime.NewInvoker(cfg.Resolver(), runtime.InvokerOptions{
		Logger:  log,
		Metrics: metrics,
		Engine:  cfg.Engine,
		Backend: opts,
	})
	defer func() {
		err = multierr.Append(err, inv.Close(context.Background()))
	}()

	svc := server.NewService(inv, cfg.ModuleNames, log)
	handler, err := server.NewHandler(svc, registry, cfg.Server.AllowedOrigins, log)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		return err
	}
	srv := server.New(listener, handler, server.HTTPConfig{
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, log)

	log.Info("wasmshipd starting",
		zap.String("engine", inv.Engine()),
		zap.Strings("modules", cfg.ModuleNames()),
		zap.Stringer("addr", srv.Addr()),
	)
	if ready != nil {
		ready(srv.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Dispatch)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return srv.Shutdown()
	})
	return g.Wait()
}
