package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/rpc/v2/json2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	_ "github.com/wasmship/wasmship/engine"
	"github.com/wasmship/wasmship/errors"
	"github.com/wasmship/wasmship/internal/wasmtest"
	"github.com/wasmship/wasmship/runtime"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	path := wasmtest.WriteTemp(t, "adder.wasm", wasmtest.Adder())
	resolver := runtime.ResolverFunc(func(ref string) (runtime.Module, error) {
		if ref != "adder" {
			return runtime.Module{}, errors.NotFound(errors.PhaseLoad, "module", ref)
		}
		return runtime.ModuleFromFile(path, "add"), nil
	})

	reg := prometheus.NewRegistry()
	metrics, err := runtime.NewMetrics(reg)
	require.NoError(t, err)

	inv := runtime.NewInvoker(resolver, runtime.InvokerOptions{Metrics: metrics})
	t.Cleanup(func() { require.NoError(t, inv.Close(context.Background())) })

	svc := NewService(inv, func() []string { return []string{"adder"} }, nil)
	handler, err := NewHandler(svc, reg, []string{"*"}, nil)
	require.NoError(t, err)
	return handler
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *json2.Error    `json:"error"`
}

func postRPC(t *testing.T, h http.Handler, method string, params any) rpcResponse {
	t.Helper()

	body, err := json2.EncodeClientRequest(ServiceName+"."+method, params)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, RPCPath, strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestRPCInvoke(t *testing.T) {
	h := newTestHandler(t)

	resp := postRPC(t, h, "Invoke", InvokeArgs{Module: "adder", Args: []string{"2", "3"}})
	require.Nil(t, resp.Error)
	require.JSONEq(t, `{"results":[{"type":"i32","value":"5"}]}`, string(resp.Result))
}

func TestRPCTypedError(t *testing.T) {
	require := require.New(t)
	h := newTestHandler(t)

	resp := postRPC(t, h, "Invoke", InvokeArgs{Module: "adder", Export: "add", Args: []string{"2"}})
	require.NotNil(resp.Error)
	require.Equal(json2.E_SERVER, resp.Error.Code)

	data, ok := resp.Error.Data.(map[string]any)
	require.True(ok)
	require.Equal("arity_mismatch", data["kind"])
	require.Equal("encode", data["phase"])
	require.EqualValues(2, data["expected"])
	require.EqualValues(1, data["actual"])
	require.EqualValues(-1, data["position"])
}

func TestRPCInvalidInput(t *testing.T) {
	h := newTestHandler(t)

	resp := postRPC(t, h, "Invoke", InvokeArgs{})
	require.NotNil(t, resp.Error)
	require.Equal(t, json2.E_BAD_PARAMS, resp.Error.Code)

	resp = postRPC(t, h, "List", ListArgs{Kind: "everything"})
	require.NotNil(t, resp.Error)
}

func TestRPCExportsAndList(t *testing.T) {
	require := require.New(t)
	h := newTestHandler(t)

	resp := postRPC(t, h, "List", ListArgs{Kind: ListInstances})
	require.Nil(resp.Error)
	require.JSONEq(`{"names":[]}`, string(resp.Result))

	resp = postRPC(t, h, "Exports", ExportsArgs{Module: "adder"})
	require.Nil(resp.Error)
	require.JSONEq(`{"exports":[{"name":"add","params":["i32","i32"],"results":["i32"]}]}`, string(resp.Result))

	resp = postRPC(t, h, "List", ListArgs{Kind: ListInstances})
	require.JSONEq(`{"names":["adder"]}`, string(resp.Result))

	resp = postRPC(t, h, "List", ListArgs{Kind: ListModules})
	require.JSONEq(`{"names":["adder"]}`, string(resp.Result))

	resp = postRPC(t, h, "Ping", PingArgs{})
	require.JSONEq(`{"success":true}`, string(resp.Result))
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestHandler(t)
	postRPC(t, h, "Invoke", InvokeArgs{Module: "adder", Args: []string{"1", "1"}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok\n", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, MetricsPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `wasmship_invocations_total{engine="wazero",result="ok"} 1`)
	require.Contains(t, rec.Body.String(), "wasmship_backends_loaded 1")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, RPCPath, nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServerDispatchShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(listener, newTestHandler(t), HTTPConfig{}, nil)
	done := make(chan error, 1)
	go func() { done <- srv.Dispatch() }()

	resp, err := http.Get(fmt.Sprintf("http://%s%s", srv.Addr(), HealthPath))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, "ok\n", string(body))

	require.NoError(t, srv.Shutdown())
	require.NoError(t, <-done)
}

func TestErrorDataRoundTrip(t *testing.T) {
	orig := errors.ArgumentFormat("add", 1, "abc", "i32", fmt.Errorf("invalid syntax"))

	mapped, ok := mapError(orig).(*json2.Error)
	require.True(t, ok)
	require.Equal(t, orig.Error(), mapped.Message)

	rebuilt := mapped.Data.(ErrorData).ToError()
	require.Equal(t, orig.Error(), rebuilt.Error())
	require.Equal(t, 1, rebuilt.Position)
	require.True(t, errors.IsKind(rebuilt, errors.KindArgumentFormat))
}
