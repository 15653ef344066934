// Package cli wires the two roles of the faultline binary: the
// orchestrator, which verifies every catalog scenario in an isolated
// child run, and the scenario role, which deliberately drives a
// node-management session into one failure mode.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faultline/faultline/internal/config"
	"github.com/faultline/faultline/internal/scenario"
)

// RootOptions holds the flags of the root command.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Scenario-selection flags, only to be used when the harness
	// relaunches itself. Presence of either selects the scenario role.
	RPCTimeout int
	ExtraArgs  string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the faultline root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "faultline",
		Short: "Verify that node startup failures surface exactly one diagnostic",
		Long: `faultline verifies a single invariant of the node-management
framework: when a managed kvnoded process fails to start or never
becomes reachable, the run surfaces exactly one diagnostic (one stack
trace, one typed error, one terminal failure message), never a cascade
of secondary failures.

Without scenario flags, faultline relaunches itself once per failure
scenario as an isolated child process and checks marker counts over
the child's combined output.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}

			params := scenario.FromFlags(cmd.Flags().Changed("rpc-timeout"), opts.RPCTimeout, opts.ExtraArgs)
			if params.ScenarioRole() {
				return runScenarioRole(cmd, cfg, params)
			}
			return runOrchestrator(cmd, opts, cfg)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "harness config file (YAML)")
	cmd.Flags().IntVar(&opts.RPCTimeout, "rpc-timeout", 0,
		"node readiness budget in seconds; ONLY TO BE USED WHEN THE HARNESS RELAUNCHES ITSELF")
	cmd.Flags().StringVar(&opts.ExtraArgs, "extra-args", "",
		"extra native node arguments; ONLY TO BE USED WHEN THE HARNESS RELAUNCHES ITSELF")

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
