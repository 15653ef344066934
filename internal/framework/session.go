// Package framework is a minimal node-management session: it owns the
// lifecycle of zero or one managed node daemons, a per-run log
// directory, and the single failure report emitted when a run dies.
//
// The harness points this framework at deliberately broken node
// configurations and verifies from the outside that a fatal run
// produces exactly one diagnostic, never a cascade.
package framework

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/faultline/faultline/internal/config"
	"github.com/faultline/faultline/internal/scenario"
	"github.com/faultline/faultline/internal/testutil"
)

// DefaultRPCTimeout is the readiness-wait budget when no override is
// given.
const DefaultRPCTimeout = 60 * time.Second

// nodeFactory builds a Node; replaced in tests to observe lifecycle
// invocations.
type nodeFactory func(index int, binary string, rpcPort int, extra []string, log *slog.Logger, clock testutil.Clock) *Node

// Session drives one node-management run, configured from the
// scenario-selection flags.
type Session struct {
	// LogDir is the per-run log directory named in the terminal
	// failure message.
	LogDir string

	cfg     *config.Config
	params  scenario.Params
	log     *slog.Logger
	logFile *os.File
	out     io.Writer
	nodes   []*Node
	newNode nodeFactory
	clock   testutil.Clock
}

// NewSession creates the per-run log directory and logger. The out
// writer receives both session logs and, on failure, the diagnostic
// block; it is the stream the relaunch driver captures.
func NewSession(cfg *config.Config, params scenario.Params, out io.Writer) (*Session, error) {
	if out == nil {
		out = os.Stdout
	}

	logDir := filepath.Join(cfg.LogRoot, "faultline-"+uuid.Must(uuid.NewV7()).String())
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.Create(filepath.Join(logDir, "debug.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to create debug log: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.MultiWriter(out, logFile), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &Session{
		LogDir:  logDir,
		cfg:     cfg,
		params:  params,
		log:     logger,
		logFile: logFile,
		out:     out,
		newNode: NewNode,
		clock:   testutil.SystemClock{},
	}, nil
}

// Run executes the session: start every configured node and wait for
// its RPC interface. It returns the first fatal error, or nil when
// all nodes reached READY.
//
// With zero nodes configured nothing is set up or torn down: the
// lifecycle path assumes at least one node once entered, so it is
// guarded here rather than made tolerant.
func (s *Session) Run(ctx context.Context) error {
	if s.params.NumNodes == 0 {
		return nil
	}
	defer s.teardown()
	return s.setupNetwork(ctx)
}

// setupNetwork starts the configured nodes and blocks until each one
// answers RPC or fails. Only called with at least one node configured.
func (s *Session) setupNetwork(ctx context.Context) error {
	budget := DefaultRPCTimeout
	if s.params.RPCTimeoutSet {
		budget = s.params.RPCTimeout
	}
	s.log.Info("setting up network", "nodes", s.params.NumNodes, "rpc_budget", budget)

	for i := 0; i < s.params.NumNodes; i++ {
		node := s.newNode(i, s.cfg.NodeBinary, s.cfg.RPCPort(i), s.params.ExtraArgs, s.log, s.clock)
		s.nodes = append(s.nodes, node)

		datadir := filepath.Join(s.LogDir, fmt.Sprintf("node%d", i))
		if err := os.MkdirAll(datadir, 0755); err != nil {
			return fmt.Errorf("failed to create node datadir: %w", err)
		}
		if err := node.Start(ctx, datadir); err != nil {
			return err
		}
	}

	for _, node := range s.nodes {
		if err := node.WaitForRPC(ctx, budget); err != nil {
			return err
		}
	}
	return nil
}

// teardown stops whatever was started. Every Stop is guarded, so a
// node that died during init or never launched cannot produce a
// second error while the first is being reported.
func (s *Session) teardown() {
	for _, node := range s.nodes {
		node.Stop()
	}
	s.logFile.Close()
}

// ReportFailure emits the diagnostic block for a fatal session error:
// one stack trace, one typed error line, and one terminal failure
// message naming the log directory. Nothing else in the session
// prints any of these markers; that is what keeps the exactly-once
// invariant checkable from the captured output alone.
func (s *Session) ReportFailure(err error) {
	fmt.Fprintf(s.out, "Traceback (most recent call first):\n%s", debug.Stack())
	fmt.Fprintf(s.out, "%s: %v\n", errorName(err), err)
	fmt.Fprintf(s.out, "Test failed. Test logging available at %s\n", s.LogDir)
}
