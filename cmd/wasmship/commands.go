package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/akamensky/argparse"
	"github.com/mattn/go-shellwords"

	"github.com/wasmship/wasmship/errors"
	"github.com/wasmship/wasmship/runtime"
	"github.com/wasmship/wasmship/server"
	"github.com/wasmship/wasmship/value"
)

// Cmd is one wasmship subcommand.
type Cmd interface {
	Happened() bool
	Run(ctx context.Context, d dispatcher, out io.Writer) error
}

var (
	_ Cmd = (*runCmd)(nil)
	_ Cmd = (*exportsCmd)(nil)
	_ Cmd = (*listCmd)(nil)
)

type runCmd struct {
	cmd *argparse.Command

	module *string
	export *string
	args   *string
}

func (c *runCmd) New(parser *argparse.Parser) {
	c.cmd = parser.NewCommand("run", "Invoke an export and print its results")
	c.module = c.cmd.String("m", "module", &argparse.Options{
		Help:     "configured module name or path to a .wasm file",
		Required: true,
	})
	c.export = c.cmd.String("e", "export", &argparse.Options{
		Help: "export to call, defaults to the module's entry point",
	})
	c.args = c.cmd.String("a", "args", &argparse.Options{
		Help: `arguments split like a shell, e.g. --args="2 -5"`,
	})
}

func (c *runCmd) Happened() bool {
	return c.cmd.Happened()
}

func (c *runCmd) Run(ctx context.Context, d dispatcher, out io.Writer) error {
	args, err := splitArgs(*c.args)
	if err != nil {
		return err
	}
	results, err := d.Invoke(ctx, runtime.Command{
		Module: *c.module,
		Export: *c.export,
		Args:   args,
	})
	if err != nil {
		return err
	}
	return writeResults(out, results)
}

type exportsCmd struct {
	cmd *argparse.Command

	module      *string
	interactive *bool
}

func (c *exportsCmd) New(parser *argparse.Parser) {
	c.cmd = parser.NewCommand("exports", "List the callable exports of a module")
	c.module = c.cmd.String("m", "module", &argparse.Options{
		Help:     "configured module name or path to a .wasm file",
		Required: true,
	})
	c.interactive = c.cmd.Flag("i", "interactive", &argparse.Options{
		Help: "pick an export and call it from a terminal UI",
	})
}

func (c *exportsCmd) Happened() bool {
	return c.cmd.Happened()
}

func (c *exportsCmd) Run(ctx context.Context, d dispatcher, out io.Writer) error {
	reply, err := d.Exports(ctx, *c.module)
	if err != nil {
		return err
	}
	if *c.interactive {
		return runInteractive(ctx, d, *c.module, reply)
	}
	return writeExports(out, reply)
}

type listCmd struct {
	cmd *argparse.Command

	kind *string
}

func (c *listCmd) New(parser *argparse.Parser) {
	c.cmd = parser.NewCommand("list", "List configured modules or loaded instances")
	c.kind = c.cmd.Selector("k", "kind", []string{server.ListModules, server.ListInstances}, &argparse.Options{
		Help:    "what to list",
		Default: server.ListModules,
	})
}

func (c *listCmd) Happened() bool {
	return c.cmd.Happened()
}

func (c *listCmd) Run(ctx context.Context, d dispatcher, out io.Writer) error {
	names, err := d.List(ctx, *c.kind)
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(out, name); err != nil {
			return err
		}
	}
	return nil
}

// splitArgs splits an argument string with shell quoting rules. An empty
// string yields no arguments.
func splitArgs(s string) ([]string, error) {
	args, err := shellwords.Parse(s)
	if err != nil {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Detail("cannot split arguments %q", s).
			Cause(err).
			Build()
	}
	if args == nil {
		args = []string{}
	}
	return args, nil
}

// writeResults prints one "type:value" line per result.
func writeResults(out io.Writer, results []value.Value) error {
	for _, r := range results {
		if _, err := fmt.Fprintf(out, "%s:%s\n", r.Type(), r); err != nil {
			return err
		}
	}
	return nil
}

func writeExports(out io.Writer, reply *server.ExportsReply) error {
	for _, e := range reply.Exports {
		sig := runtime.FunctionExport{Params: e.Params, Results: e.Results}
		if _, err := fmt.Fprintf(out, "%s %s\n", e.Name, sig); err != nil {
			return err
		}
	}

	skipped := make([]string, 0, len(reply.Skipped))
	for name := range reply.Skipped {
		skipped = append(skipped, name)
	}
	sort.Strings(skipped)
	for _, name := range skipped {
		if _, err := fmt.Fprintf(out, "# skipped %s: %s\n", name, reply.Skipped[name]); err != nil {
			return err
		}
	}
	return nil
}
