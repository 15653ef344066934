package scenario

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faultline/faultline/internal/config"
)

// Representative collaborator messages, one per failure cause. The
// catalog patterns must each match exactly their own message and
// nothing else, otherwise a duplicated diagnostic could hide behind an
// over-broad pattern.
var sampleMessages = map[string]string{
	"instant-rpc-timeout": "RPCTimeoutError: [node 0] unable to connect to kvnoded after 0s",
	"wrong-rpc-port": `RPCTimeoutError: [node 0] unable to connect to kvnoded after 2s ` +
		`(ignored errors: {ECONNREFUSED: 7}, latest error: Post "http://127.0.0.1:18743/": dial tcp 127.0.0.1:18743: connect: connection refused)`,
	"init-error": "FailedToStartError: [node 0] kvnoded exited with status 1 during initialization. " +
		"Error: Error parsing command line arguments: Invalid parameter -nonexistentarg",
}

func TestCatalogDefinesThreeScenarios(t *testing.T) {
	specs := Catalog(config.Default())

	require.Len(t, specs, 3)
	assert.Equal(t, "instant-rpc-timeout", specs[0].Name)
	assert.Equal(t, "wrong-rpc-port", specs[1].Name)
	assert.Equal(t, "init-error", specs[2].Name)
}

func TestCatalogArgsEncodeTheFailureTrigger(t *testing.T) {
	cfg := config.Default()
	cfg.BaseRPCPort = 20000
	specs := Catalog(cfg)

	assert.Equal(t, []string{"--rpc-timeout=0"}, specs[0].CLIArgs)
	assert.Equal(t, []string{"--rpc-timeout=2", "--extra-args=-rpcport=20002"}, specs[1].CLIArgs)
	assert.Equal(t, []string{"--extra-args=-nonexistentarg"}, specs[2].CLIArgs)
}

func TestCatalogPatternsDisambiguateFailureCauses(t *testing.T) {
	specs := Catalog(config.Default())

	for _, spec := range specs {
		for name, message := range sampleMessages {
			matched := spec.ExpectedException.MatchString(message)
			if name == spec.Name {
				assert.True(t, matched, "scenario %s must match its own message", spec.Name)
			} else {
				assert.False(t, matched, "scenario %s must not match %s's message", spec.Name, name)
			}
		}
	}
}

func TestCatalogPatternsMatchExactlyOnceInFullOutput(t *testing.T) {
	specs := Catalog(config.Default())

	for _, spec := range specs {
		output := fmt.Sprintf(
			"time=2026-08-24T10:00:00Z level=INFO msg=\"node started\" node=0\n"+
				"Traceback (most recent call first):\ngoroutine 1 [running]:\n"+
				"%s\n"+
				"Test failed. Test logging available at /tmp/faultline-x\n",
			sampleMessages[spec.Name])

		matches := spec.ExpectedException.FindAllString(output, -1)
		assert.Len(t, matches, 1, "scenario %s", spec.Name)
	}
}
