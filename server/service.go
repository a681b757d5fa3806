package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/wasmship/wasmship/errors"
	"github.com/wasmship/wasmship/runtime"
	"github.com/wasmship/wasmship/value"
)

// ServiceName prefixes every JSON-RPC method, e.g. "wasmship.Invoke".
const ServiceName = "wasmship"

const (
	ListModules   = "modules"
	ListInstances = "instances"
)

type PingArgs struct{}

type PingReply struct {
	Success bool `json:"success"`
}

type InvokeArgs struct {
	Module string   `json:"module"`
	Export string   `json:"export,omitempty"`
	Args   []string `json:"args"`
}

type InvokeReply struct {
	Results []value.Value `json:"results"`
}

type ExportsArgs struct {
	Module string `json:"module"`
}

type Export struct {
	Name    string            `json:"name"`
	Params  []value.ValueType `json:"params"`
	Results []value.ValueType `json:"results"`
}

type ExportsReply struct {
	Exports []Export          `json:"exports"`
	Skipped map[string]string `json:"skipped,omitempty"`
}

type ListArgs struct {
	Kind string `json:"kind"`
}

type ListReply struct {
	Names []string `json:"names"`
}

// NewExportsReply renders a catalog in wire form, exports in catalog order.
func NewExportsReply(catalog *runtime.FunctionExports) *ExportsReply {
	reply := &ExportsReply{Exports: make([]Export, 0, catalog.Len())}
	for _, name := range catalog.Names() {
		sig, _ := catalog.Lookup(name)
		reply.Exports = append(reply.Exports, Export{Name: name, Params: sig.Params, Results: sig.Results})
	}
	if skipped := catalog.Skipped(); len(skipped) > 0 {
		reply.Skipped = make(map[string]string, len(skipped))
		for name, err := range skipped {
			reply.Skipped[name] = err.Error()
		}
	}
	return reply
}

// Service exposes an Invoker over JSON-RPC.
type Service struct {
	invoker *runtime.Invoker
	modules func() []string
	log     *zap.Logger
}

// NewService serves inv. modules lists the configured module names for
// List; nil reports none.
func NewService(inv *runtime.Invoker, modules func() []string, log *zap.Logger) *Service {
	if modules == nil {
		modules = func() []string { return nil }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{invoker: inv, modules: modules, log: log}
}

func (s *Service) Ping(_ *http.Request, _ *PingArgs, reply *PingReply) error {
	reply.Success = true
	return nil
}

func (s *Service) Invoke(r *http.Request, args *InvokeArgs, reply *InvokeReply) error {
	if args.Module == "" {
		return errors.InvalidInput(errors.PhaseTransport, "module is required")
	}
	results, err := s.invoker.Invoke(r.Context(), runtime.Command{
		Module: args.Module,
		Export: args.Export,
		Args:   args.Args,
	})
	if err != nil {
		return err
	}
	reply.Results = results
	return nil
}

func (s *Service) Exports(r *http.Request, args *ExportsArgs, reply *ExportsReply) error {
	if args.Module == "" {
		return errors.InvalidInput(errors.PhaseTransport, "module is required")
	}
	catalog, err := s.invoker.Exports(r.Context(), args.Module)
	if err != nil {
		return err
	}

	*reply = *NewExportsReply(catalog)
	return nil
}

// List returns configured module names or the references with a live
// backend.
func (s *Service) List(_ *http.Request, args *ListArgs, reply *ListReply) error {
	switch args.Kind {
	case ListModules, "":
		reply.Names = s.modules()
	case ListInstances:
		reply.Names = s.invoker.Loaded()
	default:
		return errors.InvalidInput(errors.PhaseTransport, "unknown list kind "+args.Kind)
	}
	if reply.Names == nil {
		reply.Names = []string{}
	}
	return nil
}
