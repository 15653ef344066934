package framework

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientFor(t *testing.T, handler http.Handler) *RPCClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewRPCClient(server.Listener.Addr().(*net.TCPAddr).Port)
}

func TestPingSucceedsOnPong(t *testing.T) {
	client := clientFor(t, newPongHandler())
	require.NoError(t, client.Ping(context.Background()))
}

func TestPingRejectsNon200(t *testing.T) {
	client := clientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))

	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc status 503")
}

func TestPingRejectsUnexpectedResult(t *testing.T) {
	client := clientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"pang"}`))
	}))

	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unexpected rpc result "pang"`)
}

func TestPingRejectsMalformedResponse(t *testing.T) {
	client := clientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))

	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed rpc response")
}

func TestPingAgainstClosedPortIsConnectionRefused(t *testing.T) {
	client := NewRPCClient(freePort(t))

	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	assert.Equal(t, "ECONNREFUSED", classifyIgnored(err))
}
