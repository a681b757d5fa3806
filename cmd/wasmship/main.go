// Command wasmship invokes exports of WebAssembly modules, either through a
// wasmshipd daemon or, with --local, inside this process.
//
//	wasmship run --module adder --export add --args="2 3"
//	wasmship exports --module ./adder.wasm --local
//	wasmship list --kind instances
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/akamensky/argparse"

	"github.com/wasmship/wasmship/client"
	"github.com/wasmship/wasmship/config"
	"github.com/wasmship/wasmship/errors"
	"github.com/wasmship/wasmship/runtime"

	_ "github.com/wasmship/wasmship/engine"
)

type globalOptions struct {
	endpoint *string
	config   *string
	engine   *string
	local    *bool
	verbose  *bool
}

func (o *globalOptions) New(parser *argparse.Parser) {
	o.endpoint = parser.String("", "endpoint", &argparse.Options{
		Help: "wasmshipd JSON-RPC endpoint, overrides client.endpoint",
	})
	o.config = parser.String("c", "config", &argparse.Options{
		Help: "path to a wasmship YAML config",
	})
	o.engine = parser.Selector("", "engine", runtime.Engines(), &argparse.Options{
		Help: "engine for --local mode, overrides the config",
	})
	o.local = parser.Flag("l", "local", &argparse.Options{
		Help: "run modules in this process instead of a daemon",
	})
	o.verbose = parser.Flag("v", "verbose", &argparse.Options{
		Help: "log to stderr in --local mode",
	})
}

func (o *globalOptions) dispatcher() (dispatcher, error) {
	cfg := config.Default()
	if *o.config != "" {
		loaded, err := config.Load(*o.config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if !*o.local {
		if *o.engine != "" {
			return nil, errors.InvalidInput(errors.PhaseConfig, "--engine requires --local")
		}
		endpoint := cfg.Client.Endpoint
		if *o.endpoint != "" {
			endpoint = *o.endpoint
		}
		return remoteDispatcher{client.New(endpoint, cfg.Client.Timeout)}, nil
	}

	if *o.engine != "" {
		cfg.Engine = *o.engine
	}
	return newLocalDispatcher(cfg, *o.verbose)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run parses argv and executes the selected command. It returns the
// process exit status: 0 on success, 1 on a command error and 2 on a
// usage error.
func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	parser := argparse.NewParser("wasmship", "Invoke WebAssembly module exports")

	var opts globalOptions
	opts.New(parser)

	var (
		runC     runCmd
		exportsC exportsCmd
		listC    listCmd
	)
	runC.New(parser)
	exportsC.New(parser)
	listC.New(parser)
	cmds := []Cmd{&runC, &exportsC, &listC}

	if err := parser.Parse(argv); err != nil {
		fmt.Fprint(stderr, parser.Usage(err))
		return 2
	}

	d, err := opts.dispatcher()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", errorLine(err))
		return 1
	}
	defer d.Close(context.Background())

	for _, c := range cmds {
		if !c.Happened() {
			continue
		}
		if err := c.Run(ctx, d, stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", errorLine(err))
			return 1
		}
		return 0
	}
	return 0
}

// errorLine flattens engine messages such as wasm stack traces onto one line.
func errorLine(err error) string {
	lines := strings.Split(err.Error(), "\n")
	parts := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, " ")
}
