// Package relaunch executes the current program as an isolated child
// process and captures everything it prints.
//
// The harness verifies fatal failure paths of the node-management
// framework. Triggering those paths in-process would take the
// harness's own bookkeeping down with them, so each scenario is run in
// a fresh child process selected by CLI flags, and only the child's
// combined output and exit code cross the process boundary.
package relaunch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// BaseTimeout is the wall-clock budget for one child run before the
// configured timeout factor is applied. A child that outlives its
// budget indicates a broken harness, not a broken scenario.
const BaseTimeout = 10 * time.Second

// CapturedRun is the outcome of one child execution. It is owned by
// the Run invocation that produced it and is never shared across
// scenarios.
type CapturedRun struct {
	// CombinedOutput holds stdout and stderr merged into a single
	// stream, in the order the child produced them.
	CombinedOutput string

	// ExitCode is the child's exit status. Non-zero is the expected
	// outcome for failure scenarios.
	ExitCode int

	// WallTime is how long the child ran.
	WallTime time.Duration
}

// TimeoutError reports a child that did not terminate within its
// budget. It carries whatever output was captured before the child
// was killed, since a silent hang is unactionable.
type TimeoutError struct {
	Budget        time.Duration
	PartialOutput string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("child process did not exit within %s, partial output:\n%s\nPartial output end", e.Budget, e.PartialOutput)
}

// Driver spawns child runs of the current executable.
//
// The zero value re-executes os.Executable() with the default budget.
// No state is shared between Run invocations.
type Driver struct {
	// Executable overrides the binary to spawn. Defaults to the
	// current executable.
	Executable string

	// Budget bounds one child run. Defaults to BaseTimeout.
	Budget time.Duration
}

// Run executes the child with the given argument vector and returns
// its captured output. The child inherits the parent's environment
// and working directory.
//
// A non-zero child exit is not an error. Exceeding the budget is: the
// child is killed and a *TimeoutError is returned instead of a
// CapturedRun.
func (d *Driver) Run(ctx context.Context, args []string) (*CapturedRun, error) {
	exe := d.Executable
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve current executable: %w", err)
		}
	}
	budget := d.Budget
	if budget <= 0 {
		budget = BaseTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	// One buffer for both streams so the capture reflects the child's
	// actual interleaving as closely as the platform allows.
	var out bytes.Buffer
	cmd := exec.CommandContext(runCtx, exe, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	wall := time.Since(start)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, &TimeoutError{Budget: budget, PartialOutput: out.String()}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to spawn child process: %w", err)
		}
		// Child ran and exited non-zero: the happy path for a failure
		// scenario. Fall through with its output.
	}

	return &CapturedRun{
		CombinedOutput: out.String(),
		ExitCode:       cmd.ProcessState.ExitCode(),
		WallTime:       wall,
	}, nil
}
