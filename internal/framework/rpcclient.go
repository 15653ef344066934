package framework

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// rpcRequestTimeout bounds a single poll attempt so one stalled dial
// cannot eat the whole readiness budget.
const rpcRequestTimeout = time.Second

// RPCClient is a minimal JSON-RPC client for the node daemon's control
// endpoint. The harness only needs enough of the protocol to ask
// whether the daemon is up.
type RPCClient struct {
	url  string
	http *http.Client
}

// NewRPCClient returns a client for the daemon listening on the given
// local port.
func NewRPCClient(port int) *RPCClient {
	return &RPCClient{
		url:  fmt.Sprintf("http://127.0.0.1:%d/", port),
		http: &http.Client{Timeout: rpcRequestTimeout},
	}
}

type rpcRequest struct {
	Method string `json:"method"`
}

type rpcResponse struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Ping performs one readiness probe. Any transport or protocol error
// is returned as-is so the caller can classify and tally it.
func (c *RPCClient) Ping(ctx context.Context) error {
	body, err := json.Marshal(rpcRequest{Method: "ping"})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc status %d", resp.StatusCode)
	}
	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("malformed rpc response: %w", err)
	}
	if decoded.Result != "pong" {
		return fmt.Errorf("unexpected rpc result %q", decoded.Result)
	}
	return nil
}
