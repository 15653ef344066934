package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/faultline/faultline/internal/config"
	"github.com/faultline/faultline/internal/invariant"
	"github.com/faultline/faultline/internal/relaunch"
	"github.com/faultline/faultline/internal/scenario"
)

// ScenarioResult holds the outcome of one scenario verification.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// VerifyResult holds the overall verification outcome.
type VerifyResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// childRunFunc executes one scenario in a child process. Factored out
// so verification logic is testable without spawning processes.
type childRunFunc func(ctx context.Context, spec scenario.Spec) (*relaunch.CapturedRun, error)

// runOrchestrator verifies every catalog scenario in its own child
// run and reports the aggregate result.
func runOrchestrator(cmd *cobra.Command, opts *RootOptions, cfg *config.Config) error {
	runChild := func(ctx context.Context, spec scenario.Spec) (*relaunch.CapturedRun, error) {
		budget := relaunch.BaseTimeout
		if spec.TimeoutOverride > 0 {
			budget = spec.TimeoutOverride
		}
		budget = time.Duration(float64(budget) * cfg.TimeoutFactor)

		args := append([]string(nil), spec.CLIArgs...)
		if opts.ConfigPath != "" {
			// The environment is inherited either way; an explicit
			// --config must survive the relaunch too.
			args = append(args, "--config", opts.ConfigPath)
		}

		driver := &relaunch.Driver{Budget: budget}
		return driver.Run(ctx, args)
	}

	result, err := verifyScenarios(cmd.Context(), scenario.Catalog(cfg), runChild, cmd.OutOrStdout(), opts.Format)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return outputVerifyJSON(cmd.OutOrStdout(), result)
	}
	return outputVerifyText(cmd.OutOrStdout(), result)
}

// verifyScenarios runs each scenario exactly once, sequentially, and
// checks the single-exception invariant over its captured output.
//
// An invariant violation is recorded and the remaining scenarios still
// run. A harness timeout or spawn failure aborts the whole run: a
// child that cannot be executed or will not die means the harness
// itself is broken.
func verifyScenarios(ctx context.Context, specs []scenario.Spec, runChild childRunFunc, w io.Writer, format string) (VerifyResult, error) {
	result := VerifyResult{
		Scenarios: make([]ScenarioResult, 0, len(specs)),
		Total:     len(specs),
	}

	for _, spec := range specs {
		run, err := runChild(ctx, spec)
		if err != nil {
			var timeoutErr *relaunch.TimeoutError
			if errors.As(err, &timeoutErr) {
				return result, WrapExitError(ExitCommandError,
					fmt.Sprintf("harness timeout in scenario %q", spec.Name), err)
			}
			return result, WrapExitError(ExitCommandError,
				fmt.Sprintf("failed to relaunch scenario %q", spec.Name), err)
		}

		if checkErr := invariant.Check(run, spec); checkErr != nil {
			if format != "json" {
				fmt.Fprintf(w, "✗ %s (exit %d, %s)\n", spec.Name, run.ExitCode, run.WallTime.Round(time.Millisecond))
				fmt.Fprintf(w, "%s\n", checkErr)
			}
			result.Scenarios = append(result.Scenarios, ScenarioResult{
				Name:   spec.Name,
				Errors: []string{checkErr.Error()},
			})
			result.Failed++
			continue
		}

		if format != "json" {
			fmt.Fprintf(w, "✓ %s (exit %d, %s)\n", spec.Name, run.ExitCode, run.WallTime.Round(time.Millisecond))
		}
		result.Scenarios = append(result.Scenarios, ScenarioResult{Name: spec.Name, Pass: true})
		result.Passed++
	}

	return result, nil
}

// outputVerifyJSON renders the aggregate result as a CLIResponse.
func outputVerifyJSON(w io.Writer, result VerifyResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_INVARIANT_VIOLATED",
			Message: fmt.Sprintf("%d scenario(s) violated the single-exception invariant", result.Failed),
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputVerifyText renders the aggregate result as text.
func outputVerifyText(w io.Writer, result VerifyResult) error {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Verify Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ Every failure scenario surfaced exactly one diagnostic")
	return nil
}
