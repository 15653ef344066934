package framework

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// RPCTimeoutError reports a node whose RPC interface never became
// reachable within the readiness budget.
//
// The message shape is part of the harness's text contract: it carries
// the node index, the elapsed whole seconds, and, when the poll loop
// ignored transient connection errors, a tally of those errors by
// class together with the latest one observed.
type RPCTimeoutError struct {
	NodeIndex int
	Elapsed   time.Duration
	Ignored   map[string]int
	Latest    error
}

func (e *RPCTimeoutError) Error() string {
	msg := fmt.Sprintf("[node %d] unable to connect to kvnoded after %ds",
		e.NodeIndex, int(e.Elapsed.Seconds()))
	if len(e.Ignored) == 0 {
		return msg
	}

	keys := make([]string, 0, len(e.Ignored))
	for k := range e.Ignored {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, e.Ignored[k]))
	}
	return fmt.Sprintf("%s (ignored errors: {%s}, latest error: %v)",
		msg, strings.Join(parts, ", "), e.Latest)
}

// FailedToStartError reports a node daemon that exited before its RPC
// interface came up. The message carries the exit status and the
// native error text parsed from the daemon's stderr.
type FailedToStartError struct {
	NodeIndex  int
	Binary     string
	ExitStatus int
	ParsedErr  string
}

func (e *FailedToStartError) Error() string {
	return fmt.Sprintf("[node %d] %s exited with status %d during initialization. Error: %s",
		e.NodeIndex, e.Binary, e.ExitStatus, e.ParsedErr)
}

// errorName returns the diagnostic type name rendered in front of a
// fatal error, mirroring the exception-class prefix the invariant
// patterns match on.
func errorName(err error) string {
	var timeoutErr *RPCTimeoutError
	if errors.As(err, &timeoutErr) {
		return "RPCTimeoutError"
	}
	var startErr *FailedToStartError
	if errors.As(err, &startErr) {
		return "FailedToStartError"
	}
	return "Error"
}
