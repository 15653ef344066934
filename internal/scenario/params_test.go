package scenario

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromFlagsNoFlagsSelectsOrchestrator(t *testing.T) {
	p := FromFlags(false, 0, "")

	assert.Equal(t, 0, p.NumNodes)
	assert.False(t, p.ScenarioRole())
	assert.False(t, p.RPCTimeoutSet)
	assert.Empty(t, p.ExtraArgs)
}

func TestFromFlagsTimeoutZeroIsAnOverride(t *testing.T) {
	p := FromFlags(true, 0, "")

	assert.Equal(t, 1, p.NumNodes)
	assert.True(t, p.ScenarioRole())
	assert.True(t, p.RPCTimeoutSet)
	assert.Equal(t, time.Duration(0), p.RPCTimeout)
}

func TestFromFlagsExtraArgsConfigureOneNode(t *testing.T) {
	p := FromFlags(false, 0, "-rpcport=18745")

	assert.Equal(t, 1, p.NumNodes)
	assert.False(t, p.RPCTimeoutSet)
	assert.Equal(t, []string{"-rpcport=18745"}, p.ExtraArgs)
}

func TestFromFlagsBothFlagsTogether(t *testing.T) {
	p := FromFlags(true, 2, "-rpcport=18745")

	assert.Equal(t, 1, p.NumNodes)
	assert.True(t, p.RPCTimeoutSet)
	assert.Equal(t, 2*time.Second, p.RPCTimeout)
	assert.Equal(t, []string{"-rpcport=18745"}, p.ExtraArgs)
}

func TestFromFlagsSplitsMultipleExtraArgs(t *testing.T) {
	p := FromFlags(false, 0, "-rpcport=18745 -nonexistentarg")

	assert.Equal(t, []string{"-rpcport=18745", "-nonexistentarg"}, p.ExtraArgs)
}
