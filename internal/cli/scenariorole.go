package cli

import (
	"github.com/spf13/cobra"

	"github.com/faultline/faultline/internal/config"
	"github.com/faultline/faultline/internal/framework"
	"github.com/faultline/faultline/internal/scenario"
)

// runScenarioRole executes one deliberately failing node-management
// session in the current (child) process and lets the failure
// terminate it non-zero.
func runScenarioRole(cmd *cobra.Command, cfg *config.Config, params scenario.Params) error {
	sess, err := framework.NewSession(cfg, params, cmd.OutOrStdout())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure session", err)
	}

	if err := sess.Run(cmd.Context()); err != nil {
		sess.ReportFailure(err)
		return NewExitError(ExitFailure, "session terminated with failure")
	}

	// Reaching READY means the scenario never triggered its fault.
	// Exit non-zero without the diagnostic block: the orchestrator's
	// marker counts then flag the defect instead of masking it.
	return NewExitError(ExitFailure, "scenario reached READY; intended fault was not triggered")
}
