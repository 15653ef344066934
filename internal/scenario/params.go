package scenario

import (
	"strings"
	"time"
)

// Params is the runtime session configuration derived from the two
// relaunch-only CLI flags.
//
// With neither flag present, zero nodes are configured and the program
// stays in the orchestrator role. With either flag present, exactly
// one node is configured for the scenario role.
type Params struct {
	// NumNodes is 0 for the orchestrator role and 1 for the scenario role.
	NumNodes int

	// RPCTimeout is the readiness-wait budget for the managed node.
	// Only meaningful when RPCTimeoutSet is true; zero forces an
	// immediate timeout.
	RPCTimeout time.Duration

	// RPCTimeoutSet distinguishes an explicit --rpc-timeout=0 from the
	// flag being absent.
	RPCTimeoutSet bool

	// ExtraArgs are native arguments appended to the node daemon's
	// argument vector.
	ExtraArgs []string
}

// FromFlags derives Params from the scenario-selection flags.
// rpcTimeoutSet must report whether the flag was present on the
// command line, since --rpc-timeout=0 is a valid override.
func FromFlags(rpcTimeoutSet bool, rpcTimeoutSec int, extraArgs string) Params {
	p := Params{}
	if rpcTimeoutSet || extraArgs != "" {
		p.NumNodes = 1
	}
	if rpcTimeoutSet {
		p.RPCTimeoutSet = true
		p.RPCTimeout = time.Duration(rpcTimeoutSec) * time.Second
	}
	if extraArgs != "" {
		p.ExtraArgs = strings.Fields(extraArgs)
	}
	return p
}

// ScenarioRole reports whether the params select the scenario role.
func (p Params) ScenarioRole() bool {
	return p.NumNodes > 0
}
