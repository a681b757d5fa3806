// Package client talks to a wasmshipd daemon over JSON-RPC.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/wasmship/wasmship/errors"
	"github.com/wasmship/wasmship/runtime"
	"github.com/wasmship/wasmship/server"
	"github.com/wasmship/wasmship/value"
)

// Client is a JSON-RPC client for the wasmship service.
type Client struct {
	http     *http.Client
	endpoint string
}

// New returns a client for endpoint, e.g. http://127.0.0.1:7878/rpc.
// A bare host URL gets the RPC path appended.
func New(endpoint string, timeout time.Duration) *Client {
	endpoint = strings.TrimSuffix(endpoint, "/")
	if !strings.HasSuffix(endpoint, server.RPCPath) {
		endpoint += server.RPCPath
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		endpoint: endpoint,
	}
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) Ping(ctx context.Context) (bool, error) {
	reply := new(server.PingReply)
	err := c.call(ctx, "Ping", &server.PingArgs{}, reply)
	return reply.Success, err
}

// Invoke runs cmd on the daemon.
func (c *Client) Invoke(ctx context.Context, cmd runtime.Command) ([]value.Value, error) {
	reply := new(server.InvokeReply)
	err := c.call(ctx, "Invoke", &server.InvokeArgs{
		Module: cmd.Module,
		Export: cmd.Export,
		Args:   cmd.Args,
	}, reply)
	if err != nil {
		return nil, err
	}
	return reply.Results, nil
}

func (c *Client) Exports(ctx context.Context, module string) (*server.ExportsReply, error) {
	reply := new(server.ExportsReply)
	if err := c.call(ctx, "Exports", &server.ExportsArgs{Module: module}, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// List returns module names (server.ListModules) or loaded instances
// (server.ListInstances).
func (c *Client) List(ctx context.Context, kind string) ([]string, error) {
	reply := new(server.ListReply)
	if err := c.call(ctx, "List", &server.ListArgs{Kind: kind}, reply); err != nil {
		return nil, err
	}
	return reply.Names, nil
}

func (c *Client) call(ctx context.Context, method string, args, reply interface{}) error {
	body, err := json2.EncodeClientRequest(server.ServiceName+"."+method, args)
	if err != nil {
		return errors.Wrap(errors.PhaseTransport, errors.KindTransport, err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(errors.PhaseTransport, errors.KindTransport, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(errors.PhaseTransport, errors.KindTransport, err, "send request to "+c.endpoint)
	}
	defer resp.Body.Close()

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.New(errors.PhaseTransport, errors.KindTransport).
			Detail("%s: %s", resp.Status, strings.TrimSpace(string(msg))).
			Build()
	}

	if err := json2.DecodeClientResponse(resp.Body, reply); err != nil {
		return decodeError(err)
	}
	return nil
}

// decodeError turns a JSON-RPC error back into the typed error the
// service returned.
func decodeError(err error) error {
	var rpcErr *json2.Error
	if !stderrors.As(err, &rpcErr) {
		return errors.Wrap(errors.PhaseTransport, errors.KindTransport, err, "decode response")
	}
	if rpcErr.Data == nil {
		return errors.New(errors.PhaseTransport, errors.KindTransport).
			Detail("%s", rpcErr.Message).
			Build()
	}

	raw, err := json.Marshal(rpcErr.Data)
	if err != nil {
		return errors.Wrap(errors.PhaseTransport, errors.KindTransport, err, "re-encode error data")
	}
	var data server.ErrorData
	if err := json.Unmarshal(raw, &data); err != nil || data.Kind == "" {
		return errors.New(errors.PhaseTransport, errors.KindTransport).
			Detail("%s", rpcErr.Message).
			Build()
	}
	return data.ToError()
}
