package counter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text   string
		target int
		suffix string
	}{
		{"500", 500, ""},
		{"300+", 300, "+"},
		{"99%", 99, "%"},
		{"  10,000+  ", 10000, "+"},
		{"1 200", 1200, ""},
		{"fast", 0, ""},
		{"", 0, ""},
		{"0", 0, ""},
		{"+", 0, "+"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.text), func(t *testing.T) {
			t.Parallel()
			target, suffix := ParseStat(tt.text)
			assert.Equal(t, tt.target, target)
			assert.Equal(t, tt.suffix, suffix)
		})
	}
}

func TestMachineTickCount(t *testing.T) {
	t.Parallel()

	// The tick count never depends on the target's magnitude.
	for _, target := range []int{1, 7, 42, 500, 10000, 98765} {
		t.Run(fmt.Sprintf("target_%d", target), func(t *testing.T) {
			t.Parallel()
			m := NewMachine(fmt.Sprintf("%d", target), DefaultSteps)
			m.Start()

			var display string
			done := false
			for !done {
				display, done = m.Tick()
			}
			assert.Equal(t, DefaultSteps, m.Ticks())
			assert.Equal(t, fmt.Sprintf("%d", target), display)
			assert.Equal(t, StateDone, m.State())
		})
	}
}

func TestMachineDisplaySequence(t *testing.T) {
	t.Parallel()

	m := NewMachine("250+", 50)
	m.Start()

	prev := -1
	for {
		display, done := m.Tick()
		require.Regexp(t, `^\d+\+$`, display)
		var v int
		_, err := fmt.Sscanf(display, "%d+", &v)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, prev, "displayed value went backwards")
		prev = v
		if done {
			break
		}
	}
	assert.Equal(t, "250+", mustTickDone(t, m))
}

func TestMachineZeroTarget(t *testing.T) {
	t.Parallel()

	m := NewMachine("soon", 50)
	m.Start()

	display, done := m.Tick()
	assert.True(t, done, "zero target should complete on the first tick")
	assert.Equal(t, "0", display)
	assert.Equal(t, 1, m.Ticks())
}

func TestMachineIdleAndDoneTicks(t *testing.T) {
	t.Parallel()

	m := NewMachine("10", 5)

	// Ticking before Start changes nothing.
	display, done := m.Tick()
	assert.False(t, done)
	assert.Empty(t, display)
	assert.Zero(t, m.Ticks())

	m.Start()
	for done := false; !done; _, done = m.Tick() {
	}
	ticks := m.Ticks()

	// Ticking a finished machine keeps the clamped display and consumes no
	// further ticks.
	display, done = m.Tick()
	assert.True(t, done)
	assert.Equal(t, "10", display)
	assert.Equal(t, ticks, m.Ticks())
}

func TestMachineStartIdempotent(t *testing.T) {
	t.Parallel()

	m := NewMachine("100", 10)
	m.Start()
	m.Tick()
	m.Start() // no-op while running
	assert.Equal(t, StateRunning, m.State())
	assert.Equal(t, 1, m.Ticks())

	for done := false; !done; _, done = m.Tick() {
	}
	m.Start() // no-op once done
	assert.Equal(t, StateDone, m.State())
}

func mustTickDone(t *testing.T, m *Machine) string {
	t.Helper()
	display, done := m.Tick()
	require.True(t, done)
	return display
}
