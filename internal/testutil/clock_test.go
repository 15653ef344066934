package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClockAdvancesOnlyOnSleep(t *testing.T) {
	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start, clock.Now(), "reads do not advance time")

	clock.Sleep(250 * time.Millisecond)
	clock.Sleep(250 * time.Millisecond)
	assert.Equal(t, start.Add(500*time.Millisecond), clock.Now())
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, clock.Slept())
}

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	clock.Advance(2 * time.Second)
	assert.Equal(t, start.Add(2*time.Second), clock.Now())
	assert.Empty(t, clock.Slept(), "Advance is not a Sleep")
}

func TestSystemClockNow(t *testing.T) {
	before := time.Now()
	now := SystemClock{}.Now()
	assert.False(t, now.Before(before))
}
