package framework

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/faultline/faultline/internal/testutil"
)

// pollInterval is the pause between readiness probes.
const pollInterval = 250 * time.Millisecond

// stopGrace is how long Stop waits for a clean exit after SIGTERM
// before killing the process.
const stopGrace = 2 * time.Second

// State tracks a managed node through its lifecycle. FAILED is the
// only terminal state any defined scenario should reach; READY in a
// failure scenario means the intended fault was never triggered.
type State int

const (
	StateConfigured State = iota
	StateStarting
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Node manages one node daemon process: it launches the binary,
// captures its stderr for init-failure diagnosis, and polls its RPC
// interface until ready or out of budget.
type Node struct {
	Index int

	binary  string
	rpcPort int
	extra   []string
	log     *slog.Logger
	clock   testutil.Clock
	client  *RPCClient

	cmd        *exec.Cmd
	stderr     bytes.Buffer
	done       chan struct{}
	exitStatus int
	state      State
}

// NewNode configures a node without starting it.
func NewNode(index int, binary string, rpcPort int, extra []string, log *slog.Logger, clock testutil.Clock) *Node {
	if clock == nil {
		clock = testutil.SystemClock{}
	}
	return &Node{
		Index:   index,
		binary:  binary,
		rpcPort: rpcPort,
		extra:   extra,
		log:     log,
		clock:   clock,
		client:  NewRPCClient(rpcPort),
		state:   StateConfigured,
	}
}

// State returns the node's current lifecycle state.
func (n *Node) State() State {
	return n.state
}

// Start launches the daemon process. Extra native arguments come
// after the defaults, so a repeated flag in extra wins.
func (n *Node) Start(ctx context.Context, datadir string) error {
	argv := []string{
		fmt.Sprintf("-rpcport=%d", n.rpcPort),
		fmt.Sprintf("-datadir=%s", datadir),
	}
	argv = append(argv, n.extra...)

	cmd := exec.Command(n.binary, argv...)
	cmd.Stdout = io.Discard
	cmd.Stderr = &n.stderr
	if err := cmd.Start(); err != nil {
		n.state = StateFailed
		return fmt.Errorf("failed to launch %s: %w", n.binary, err)
	}
	n.cmd = cmd
	n.state = StateStarting
	n.log.Info("node started", "node", n.Index, "binary", n.binary, "rpcport", n.rpcPort, "args", argv)

	n.done = make(chan struct{})
	go func() {
		defer close(n.done)
		err := cmd.Wait()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			n.exitStatus = exitErr.ExitCode()
		}
	}()
	return nil
}

// WaitForRPC polls the node's RPC interface until it answers, the
// daemon dies, or the budget runs out. A zero budget times out before
// the first probe.
//
// Transient connection errors are not failures while budget remains:
// they are tallied by class and reported inside the timeout error if
// the node never comes up.
func (n *Node) WaitForRPC(ctx context.Context, budget time.Duration) error {
	start := n.clock.Now()
	ignored := make(map[string]int)
	var latest error

	for {
		select {
		case <-n.done:
			n.state = StateFailed
			return &FailedToStartError{
				NodeIndex:  n.Index,
				Binary:     filepath.Base(n.binary),
				ExitStatus: n.exitStatus,
				ParsedErr:  parseNativeError(n.stderr.String()),
			}
		case <-ctx.Done():
			n.state = StateFailed
			return ctx.Err()
		default:
		}

		elapsed := n.clock.Now().Sub(start)
		if elapsed >= budget {
			n.state = StateFailed
			err := &RPCTimeoutError{NodeIndex: n.Index, Elapsed: elapsed, Latest: latest}
			if len(ignored) > 0 {
				err.Ignored = ignored
			}
			return err
		}

		if err := n.client.Ping(ctx); err != nil {
			ignored[classifyIgnored(err)]++
			latest = err
			n.log.Debug("node RPC not yet reachable", "node", n.Index, "err", err)
			n.clock.Sleep(pollInterval)
			continue
		}

		n.state = StateReady
		n.log.Info("node RPC reachable", "node", n.Index)
		return nil
	}
}

// Stop terminates the daemon if it is still running. Calling Stop on
// a node that never started or already exited is a no-op; teardown
// must never add a second failure on top of the one being reported.
func (n *Node) Stop() {
	if n.cmd == nil || n.cmd.Process == nil {
		return
	}
	select {
	case <-n.done:
		return
	default:
	}

	_ = n.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-n.done:
	case <-time.After(stopGrace):
		_ = n.cmd.Process.Kill()
		<-n.done
	}
	n.log.Info("node stopped", "node", n.Index)
}

// classifyIgnored buckets a transient connection error for the
// ignored-errors tally. Classes stay coarse on purpose: the tally is
// a diagnosis aid, not a structured contract.
func classifyIgnored(err error) string {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return "ECONNREFUSED"
	case errors.Is(err, syscall.ECONNRESET):
		return "ECONNRESET"
	case errors.Is(err, syscall.ETIMEDOUT):
		return "ETIMEDOUT"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return fmt.Sprintf("%T", err)
}

// parseNativeError extracts the daemon's own error text from its
// captured stderr, dropping the conventional "Error: " prefix.
func parseNativeError(stderr string) string {
	s := strings.TrimSpace(stderr)
	s = strings.TrimPrefix(s, "Error: ")
	return s
}
