// Command kvnoded is the managed node daemon the harness launches.
//
// It is deliberately minimal: strict command-line parsing and a
// JSON-RPC ping endpoint are the only behaviors the failure scenarios
// exercise. Unknown parameters are a hard init error (status 1 with a
// parseable stderr line), and a repeated -rpcport flag follows
// last-one-wins semantics, which is how the wrong-port scenario
// redirects the daemon away from the port the harness polls.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

const defaultRPCPort = 18743

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kvnoded", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	rpcPort := fs.Int("rpcport", defaultRPCPort, "RPC listen port")
	datadir := fs.String("datadir", "", "data directory")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "Error: Error parsing command line arguments: Invalid parameter %s\n", invalidParameter(err))
		return 1
	}

	if *datadir != "" {
		if err := os.MkdirAll(*datadir, 0755); err != nil {
			fmt.Fprintf(stderr, "Error: Unable to create data directory: %v\n", err)
			return 1
		}
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", *rpcPort))
	if err != nil {
		fmt.Fprintf(stderr, "Error: Unable to bind to 127.0.0.1:%d: %v\n", *rpcPort, err)
		return 1
	}

	fmt.Fprintf(stdout, "kvnoded listening on %s\n", listener.Addr())
	if err := serve(listener, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// invalidParameter extracts the offending argument from a flag
// parsing error. The flag package formats unknown flags as
// "flag provided but not defined: -name".
func invalidParameter(err error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, "flag provided but not defined: "); ok {
		return rest
	}
	return msg
}

// serve runs the RPC server until SIGINT/SIGTERM.
func serve(listener net.Listener, stdout io.Writer) error {
	server := &http.Server{Handler: newHandler()}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		fmt.Fprintf(stdout, "received %s, shutting down\n", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return err
		}
		return <-errCh
	}
}

type rpcRequest struct {
	Method string `json:"method"`
}

type rpcResponse struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// newHandler returns the JSON-RPC control endpoint.
func newHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeRPC(w, http.StatusMethodNotAllowed, rpcResponse{Error: "POST required"})
			return
		}
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeRPC(w, http.StatusBadRequest, rpcResponse{Error: "malformed request"})
			return
		}
		switch req.Method {
		case "ping":
			writeRPC(w, http.StatusOK, rpcResponse{Result: "pong"})
		default:
			writeRPC(w, http.StatusBadRequest, rpcResponse{Error: fmt.Sprintf("unknown method %q", req.Method)})
		}
	})
	return mux
}

func writeRPC(w http.ResponseWriter, status int, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
