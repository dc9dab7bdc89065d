// Package viewport defines the visibility event source the effect
// controllers consume. The source abstracts the browser's
// IntersectionObserver: a real page feeds events through the CDP bridge,
// while tests and the verify command inject them synthetically through a
// Dispatcher.
package viewport

import (
	"context"
	"fmt"
)

// Margin adjusts one edge of the observation root rectangle. Either a pixel
// offset or a percentage of the viewport height may be set; pixels win when
// both are present.
type Margin struct {
	Pixels  float64
	Percent float64
}

// String renders the margin in CSS rootMargin notation.
func (m Margin) String() string {
	if m.Pixels != 0 || m.Percent == 0 {
		return fmt.Sprintf("%.0fpx", m.Pixels)
	}
	return fmt.Sprintf("%.0f%%", m.Percent)
}

// Config describes one observation: the minimum visible-area fraction an
// element needs before it counts as intersecting, and the root margins that
// shrink (negative) or grow (positive) the viewport rectangle.
type Config struct {
	Threshold        float64
	RootMarginTop    Margin
	RootMarginBottom Margin
}

// RootMargin renders the config's margins as a CSS rootMargin value for the
// in-page IntersectionObserver bridge.
func (c Config) RootMargin() string {
	return fmt.Sprintf("%s 0px %s 0px", c.RootMarginTop, c.RootMarginBottom)
}

// Event is one intersection change of a single target.
type Event struct {
	// TargetID identifies the observed element.
	TargetID string
	// Ratio is the visible-area fraction at the time of the event.
	Ratio float64
	// Intersecting is false when the element left the (margin-adjusted)
	// viewport.
	Intersecting bool
	// Top is the element's bounding-box top, in device-independent pixels
	// from the viewport top. The section tracker uses it to break ties.
	Top float64
}

// Source produces intersection events for a set of targets.
type Source interface {
	// Observe registers interest in the given target IDs under cfg. The
	// returned subscription delivers events on its channel until it is
	// cancelled or ctx is done.
	Observe(ctx context.Context, targetIDs []string, cfg Config) *Subscription
}
