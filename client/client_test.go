package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	_ "github.com/wasmship/wasmship/engine"
	"github.com/wasmship/wasmship/errors"
	"github.com/wasmship/wasmship/internal/wasmtest"
	"github.com/wasmship/wasmship/runtime"
	"github.com/wasmship/wasmship/server"
	"github.com/wasmship/wasmship/value"
)

func newTestClient(t *testing.T) (*Client, *runtime.Invoker) {
	t.Helper()

	path := wasmtest.WriteTemp(t, "numeric.wasm", wasmtest.Numeric())
	resolver := runtime.ResolverFunc(func(ref string) (runtime.Module, error) {
		if ref != "numeric" {
			return runtime.Module{}, errors.NotFound(errors.PhaseLoad, "module", ref)
		}
		return runtime.ModuleFromFile(path, "answer"), nil
	})
	inv := runtime.NewInvoker(resolver, runtime.InvokerOptions{})

	svc := server.NewService(inv, func() []string { return []string{"numeric"} }, nil)
	handler, err := server.NewHandler(svc, prometheus.NewRegistry(), []string{"*"}, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		require.NoError(t, inv.Close(context.Background()))
	})
	return New(srv.URL, 5*time.Second), inv
}

func TestNewEndpoint(t *testing.T) {
	require.Equal(t, "http://localhost:7878/rpc", New("http://localhost:7878", 0).Endpoint())
	require.Equal(t, "http://localhost:7878/rpc", New("http://localhost:7878/", 0).Endpoint())
	require.Equal(t, "http://localhost:7878/rpc", New("http://localhost:7878/rpc", 0).Endpoint())
}

func TestClientInvoke(t *testing.T) {
	require := require.New(t)
	c, _ := newTestClient(t)
	ctx := context.Background()

	ok, err := c.Ping(ctx)
	require.NoError(err)
	require.True(ok)

	results, err := c.Invoke(ctx, runtime.Command{Module: "numeric", Export: "add", Args: []string{"2", "3"}})
	require.NoError(err)
	require.Equal([]value.Value{value.I32(5)}, results)

	results, err = c.Invoke(ctx, runtime.Command{Module: "numeric"})
	require.NoError(err)
	require.Equal([]value.Value{value.I32(42)}, results)

	results, err = c.Invoke(ctx, runtime.Command{Module: "numeric", Export: "mulf64", Args: []string{"nan:0x1", "1"}})
	require.NoError(err)
	require.Len(results, 1)
	require.Equal(value.F64Type, results[0].Type())

	results, err = c.Invoke(ctx, runtime.Command{Module: "numeric", Export: "nop"})
	require.NoError(err)
	require.Empty(results)
}

func TestClientTypedErrors(t *testing.T) {
	c, inv := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  runtime.Command
		kind errors.Kind
	}{
		{name: "arity", cmd: runtime.Command{Module: "numeric", Export: "add", Args: []string{"2"}}, kind: errors.KindArityMismatch},
		{name: "format", cmd: runtime.Command{Module: "numeric", Export: "add", Args: []string{"2", "x"}}, kind: errors.KindArgumentFormat},
		{name: "missing export", cmd: runtime.Command{Module: "numeric", Export: "sub"}, kind: errors.KindExportNotFound},
		{name: "trap", cmd: runtime.Command{Module: "numeric", Export: "crash"}, kind: errors.KindExecution},
		{name: "unknown module", cmd: runtime.Command{Module: "other"}, kind: errors.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, remote := c.Invoke(ctx, tt.cmd)
			require.True(t, errors.IsKind(remote, tt.kind), "got %v", remote)

			_, local := inv.Invoke(ctx, tt.cmd)
			require.Equal(t, local.Error(), remote.Error())
		})
	}
}

func TestClientExportsAndList(t *testing.T) {
	require := require.New(t)
	c, _ := newTestClient(t)
	ctx := context.Background()

	names, err := c.List(ctx, server.ListInstances)
	require.NoError(err)
	require.Empty(names)

	reply, err := c.Exports(ctx, "numeric")
	require.NoError(err)
	require.Len(reply.Exports, 9)
	require.Equal("add", reply.Exports[0].Name)
	require.Equal([]value.ValueType{value.I32Type, value.I32Type}, reply.Exports[0].Params)
	require.Contains(reply.Skipped, "simd")

	names, err = c.List(ctx, server.ListInstances)
	require.NoError(err)
	require.Equal([]string{"numeric"}, names)

	names, err = c.List(ctx, server.ListModules)
	require.NoError(err)
	require.Equal([]string{"numeric"}, names)
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).Invoke(context.Background(), runtime.Command{Module: "numeric"})
	require.True(t, errors.IsKind(err, errors.KindTransport))
}
