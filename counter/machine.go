// Package counter animates numeric stat elements from zero to their parsed
// target value. Each stat is a small state machine advanced by discrete
// ticks, so the animation is deterministic and independent of wall-clock
// scheduling.
package counter

import (
	"math"
	"strconv"
	"strings"
	"sync"
)

// State of a stat animation.
type State int

const (
	// StateIdle means the stat has not been triggered yet.
	StateIdle State = iota
	// StateRunning means ticks are advancing the displayed value.
	StateRunning
	// StateDone means the exact target value is displayed and no further
	// ticks will have any effect.
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// DefaultSteps is the number of ticks an animation takes regardless of the
// target magnitude: larger targets take larger steps, not more ticks.
const DefaultSteps = 50

// Compensates for float accumulation error so a target of T completes in
// exactly steps ticks instead of occasionally needing one more.
const tickEpsilon = 1e-9

// ParseStat extracts the integer target and the trailing decoration from a
// stat element's text. Non-digit characters are stripped; a trailing "%" or
// "+" is retained as the suffix. Text without digits yields target 0.
func ParseStat(text string) (target int, suffix string) {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasSuffix(trimmed, "%"):
		suffix = "%"
	case strings.HasSuffix(trimmed, "+"):
		suffix = "+"
	}

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, suffix
	}
	target, _ = strconv.Atoi(digits.String())
	return target, suffix
}

// Machine is the per-stat animation state machine. It is safe for
// concurrent use; the ticker goroutine advances it while snapshots read it.
type Machine struct {
	mu sync.Mutex

	target int
	suffix string
	step   float64
	acc    float64
	ticks  int
	state  State
}

// NewMachine parses text and returns an idle machine that will reach the
// parsed target in steps ticks. A target of 0 completes on the first tick:
// the increment is 0 and the clamp condition is satisfied immediately.
func NewMachine(text string, steps int) *Machine {
	if steps <= 0 {
		steps = DefaultSteps
	}
	target, suffix := ParseStat(text)
	return &Machine{
		target: target,
		suffix: suffix,
		step:   float64(target) / float64(steps),
	}
}

// Start moves the machine from idle to running. Starting a machine that is
// already running or done is a no-op, which is what makes the trigger
// idempotent.
func (m *Machine) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		m.state = StateRunning
	}
}

// Tick advances the animation by one step and returns the text to display.
// The displayed value is the floored accumulator with the suffix re-appended;
// once the accumulator reaches the target the display is clamped to the
// exact target and done is true. Ticking an idle or done machine changes
// nothing.
func (m *Machine) Tick() (display string, done bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateIdle:
		return "", false
	case StateDone:
		return m.render(float64(m.target)), true
	}

	m.acc += m.step
	m.ticks++
	if m.acc >= float64(m.target)-tickEpsilon {
		m.acc = float64(m.target)
		m.state = StateDone
		return m.render(float64(m.target)), true
	}
	return m.render(math.Floor(m.acc)), false
}

func (m *Machine) render(v float64) string {
	return strconv.Itoa(int(v)) + m.suffix
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Target returns the parsed target value.
func (m *Machine) Target() int { return m.target }

// Suffix returns the retained decoration, "" if none.
func (m *Machine) Suffix() string { return m.suffix }

// Ticks returns how many ticks have been consumed so far.
func (m *Machine) Ticks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticks
}
