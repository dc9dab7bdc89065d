package counter

import (
	"context"
	"time"

	"github.com/scrollfx/scrollfx/dom"
	"github.com/scrollfx/scrollfx/log"
	"github.com/scrollfx/scrollfx/viewport"
)

// DefaultTickPeriod is the wall-clock period between animation ticks, giving
// a total duration of roughly 1.5s at the default step count.
const DefaultTickPeriod = 30 * time.Millisecond

// DefaultThreshold requires a stat to be effectively fully visible before
// its animation starts.
const DefaultThreshold = 1.0

// Options configure a Controller.
type Options struct {
	// Threshold is the visible-area fraction that triggers an animation.
	// Zero means DefaultThreshold.
	Threshold float64
	// TickPeriod is the wall-clock tick period. Zero means
	// DefaultTickPeriod.
	TickPeriod time.Duration
	// Steps is the tick count per animation. Zero means DefaultSteps.
	Steps int
	// Ticker schedules ticks. Nil means IntervalTicker.
	Ticker Ticker
}

type target struct {
	elem    dom.Element
	machine *Machine
}

// Controller owns the stat targets of a page and animates each at most once
// per page load. A target is unobserved the moment its animation is
// scheduled, not when it finishes, so losing and regaining visibility
// mid-animation cannot re-trigger it.
type Controller struct {
	logger *log.Logger
	opts   Options

	order   []string
	targets map[string]*target

	sub *viewport.Subscription
}

// New creates a Controller for the given stat elements. Each element's
// initial text is parsed into its animation target at construction time. An
// empty element list is fine; Run will simply observe nothing.
func New(logger *log.Logger, elems []dom.Element, opts Options) *Controller {
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.TickPeriod == 0 {
		opts.TickPeriod = DefaultTickPeriod
	}
	if opts.Steps == 0 {
		opts.Steps = DefaultSteps
	}
	if opts.Ticker == nil {
		opts.Ticker = IntervalTicker{}
	}

	c := &Controller{
		logger:  logger,
		opts:    opts,
		targets: make(map[string]*target, len(elems)),
	}
	for _, e := range elems {
		c.order = append(c.order, e.ID())
		c.targets[e.ID()] = &target{
			elem:    e,
			machine: NewMachine(e.Text(), opts.Steps),
		}
	}
	return c
}

// Run subscribes the controller to src and processes intersection events
// until ctx is done.
func (c *Controller) Run(ctx context.Context, src viewport.Source) {
	c.sub = src.Observe(ctx, c.order, viewport.Config{Threshold: c.opts.Threshold})
	defer c.sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.sub.Events:
			c.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent processes a single intersection event. It is exported so that
// synthetic drivers can feed the controller directly without a Source.
func (c *Controller) HandleEvent(ctx context.Context, ev viewport.Event) {
	if !ev.Intersecting || ev.Ratio < c.opts.Threshold {
		return
	}
	t, ok := c.targets[ev.TargetID]
	if !ok || t.machine.State() != StateIdle {
		return
	}

	// Retire the target before the first tick runs; completion of the
	// animation does not depend on continued visibility.
	if c.sub != nil {
		c.sub.Unobserve(ev.TargetID)
	}
	t.machine.Start()
	c.logger.Debugf("counter", "starting stat %q target=%d%s", ev.TargetID, t.machine.Target(), t.machine.Suffix())

	c.opts.Ticker.Go(ctx, c.opts.TickPeriod, func() bool {
		display, done := t.machine.Tick()
		t.elem.SetText(display)
		return !done
	})
}

// TargetStatus is a point-in-time view of one stat, used for run reports.
type TargetStatus struct {
	ID      string `json:"id"`
	Target  int    `json:"target"`
	Suffix  string `json:"suffix,omitempty"`
	State   string `json:"state"`
	Ticks   int    `json:"ticks"`
	Display string `json:"display"`
}

// Snapshot returns the current status of every stat target, in document
// order.
func (c *Controller) Snapshot() []TargetStatus {
	out := make([]TargetStatus, 0, len(c.order))
	for _, id := range c.order {
		t := c.targets[id]
		out = append(out, TargetStatus{
			ID:      id,
			Target:  t.machine.Target(),
			Suffix:  t.machine.Suffix(),
			State:   t.machine.State().String(),
			Ticks:   t.machine.Ticks(),
			Display: t.elem.Text(),
		})
	}
	return out
}

// Done reports whether every stat animation has completed. Controllers with
// no targets are trivially done.
func (c *Controller) Done() bool {
	for _, t := range c.targets {
		if t.machine.State() != StateDone {
			return false
		}
	}
	return true
}
