package main

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRejectsUnknownParameter(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run([]string{"-nonexistentarg"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Equal(t,
		"Error: Error parsing command line arguments: Invalid parameter -nonexistentarg\n",
		stderr.String())
	assert.Empty(t, stdout.String())
}

func TestInvalidParameterExtractsFlagName(t *testing.T) {
	err := errors.New("flag provided but not defined: -nonexistentarg")
	assert.Equal(t, "-nonexistentarg", invalidParameter(err))

	other := errors.New("something else entirely")
	assert.Equal(t, "something else entirely", invalidParameter(other))
}

func TestRepeatedRPCPortLastOneWins(t *testing.T) {
	// The harness appends extra native args after the defaults and
	// relies on the standard last-one-wins flag semantics.
	fs := flag.NewFlagSet("kvnoded", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	port := fs.Int("rpcport", defaultRPCPort, "")

	require.NoError(t, fs.Parse([]string{"-rpcport=18745", "-rpcport=18747"}))
	assert.Equal(t, 18747, *port)
}

func TestHandlerAnswersPing(t *testing.T) {
	server := httptest.NewServer(newHandler())
	defer server.Close()

	resp, err := server.Client().Post(server.URL, "application/json",
		strings.NewReader(`{"method":"ping"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), `"result":"pong"`)
}

func TestHandlerRejectsUnknownMethod(t *testing.T) {
	server := httptest.NewServer(newHandler())
	defer server.Close()

	resp, err := server.Client().Post(server.URL, "application/json",
		strings.NewReader(`{"method":"shutdown"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandlerRequiresPost(t *testing.T) {
	server := httptest.NewServer(newHandler())
	defer server.Close()

	resp, err := server.Client().Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 405, resp.StatusCode)
}

func TestHandlerRejectsMalformedBody(t *testing.T) {
	server := httptest.NewServer(newHandler())
	defer server.Close()

	resp, err := server.Client().Post(server.URL, "application/json",
		strings.NewReader("not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 400, resp.StatusCode)
}
