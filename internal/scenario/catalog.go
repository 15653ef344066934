// Package scenario defines the failure scenarios the harness verifies
// and translates the scenario-selection flags into a runtime session
// configuration.
//
// Each scenario reproduces one startup or connection failure mode of a
// managed node in an isolated child run. The expected-exception
// patterns are deliberately precise: an over-broad pattern that could
// match two different failure causes would defeat the exactly-once
// counting the harness exists to enforce.
package scenario

import (
	"fmt"
	"regexp"
	"time"

	"github.com/faultline/faultline/internal/config"
)

// Spec is the immutable description of one failure scenario.
type Spec struct {
	// Name uniquely identifies the scenario.
	Name string

	// CLIArgs is the argument vector the relaunch driver passes to the
	// child run to trigger this failure mode.
	CLIArgs []string

	// ExpectedException must match the child's combined output exactly
	// once. The pattern is specific enough to disambiguate this
	// scenario's failure cause from every other scenario's.
	ExpectedException *regexp.Regexp

	// TimeoutOverride replaces the driver's base budget when non-zero.
	TimeoutOverride time.Duration
}

// Catalog returns the failure scenarios to verify, in execution order.
//
// The wrong-port scenario points the daemon at the RPC port of a node
// index the session never uses, so the readiness poll dials a port
// nothing listens on and accumulates connection-refused errors until
// its budget runs out.
func Catalog(cfg *config.Config) []Spec {
	return []Spec{
		{
			Name:    "instant-rpc-timeout",
			CLIArgs: []string{"--rpc-timeout=0"},
			ExpectedException: regexp.MustCompile(
				`RPCTimeoutError: \[node 0\] unable to connect to kvnoded after 0s`),
		},
		{
			Name: "wrong-rpc-port",
			CLIArgs: []string{
				// Keep the wait short; the poll can never succeed.
				"--rpc-timeout=2",
				fmt.Sprintf("--extra-args=-rpcport=%d", cfg.RPCPort(2)),
			},
			ExpectedException: regexp.MustCompile(
				`RPCTimeoutError: \[node 0\] unable to connect to kvnoded after \d+s \(ignored errors: \{[^}]*ECONNREFUSED: \d+[^}]*\}, latest error: [^)]+\)`),
		},
		{
			Name:    "init-error",
			CLIArgs: []string{"--extra-args=-nonexistentarg"},
			ExpectedException: regexp.MustCompile(
				`FailedToStartError: \[node 0\] kvnoded exited with status 1 during initialization\. Error: Error parsing command line arguments: Invalid parameter -nonexistentarg`),
		},
	}
}
