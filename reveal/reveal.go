// Package reveal transitions grouped page elements from a hidden, offset
// state to visible exactly once as they scroll into view, with a per-group
// staggered delay that produces the cascading effect.
package reveal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scrollfx/scrollfx/dom"
	"github.com/scrollfx/scrollfx/log"
	"github.com/scrollfx/scrollfx/viewport"
)

const (
	// DefaultThreshold is the visible-area fraction that triggers a reveal.
	DefaultThreshold = 0.1
	// DefaultBottomMarginPx pulls the observation root 50px up from the
	// viewport's lower edge, so elements reveal slightly before fully
	// entering.
	DefaultBottomMarginPx = -50

	// HiddenClass marks an element still waiting for its reveal.
	HiddenClass = "sfx-hidden"
	// VisibleClass marks a revealed element.
	VisibleClass = "sfx-visible"
)

// Group is a semantic collection of elements revealed with a common stagger
// constant: feature highlights, sequential steps, pricing tiers.
type Group struct {
	Name     string
	Stagger  time.Duration
	Elements []dom.Element
}

type target struct {
	elem     dom.Element
	index    int
	group    *group
	revealed bool
}

type group struct {
	Group
	sub *viewport.Subscription
}

// Controller owns the reveal groups of one page. Each target reveals at most
// once per page load; after its transition is applied the target is removed
// from observation and never touched again, even if it scrolls back out of
// view.
type Controller struct {
	logger *log.Logger
	cfg    viewport.Config

	mu      sync.Mutex
	groups  []*group
	targets map[string]*target
}

// New creates a Controller for the given groups and marks every element
// hidden. Empty groups are kept but create no observer when Run is called.
// An element that appears in more than one group is taken by the last group
// that names it; the markup contract never produces that case on purpose.
func New(logger *log.Logger, cfg viewport.Config, groups []Group) *Controller {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.RootMarginBottom == (viewport.Margin{}) {
		cfg.RootMarginBottom = viewport.Margin{Pixels: DefaultBottomMarginPx}
	}

	c := &Controller{
		logger:  logger,
		cfg:     cfg,
		targets: make(map[string]*target),
	}
	for _, gd := range groups {
		g := &group{Group: gd}
		c.groups = append(c.groups, g)
		for i, e := range gd.Elements {
			e.AddClass(HiddenClass)
			c.targets[e.ID()] = &target{elem: e, index: i, group: g}
		}
	}
	return c
}

// Run registers one observer per non-empty group and processes intersection
// events until ctx is done. Events from all groups funnel into a single
// loop, so target state is only ever touched from one goroutine.
func (c *Controller) Run(ctx context.Context, src viewport.Source) {
	merged := make(chan viewport.Event)

	for _, g := range c.groups {
		if len(g.Elements) == 0 {
			continue
		}
		ids := make([]string, len(g.Elements))
		for i, e := range g.Elements {
			ids[i] = e.ID()
		}
		g.sub = src.Observe(ctx, ids, c.cfg)
		defer g.sub.Cancel()

		go func(sub *viewport.Subscription) {
			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-sub.Events:
					select {
					case merged <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}(g.sub)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-merged:
			c.HandleEvent(ev)
		}
	}
}

// HandleEvent applies the reveal transition for a single intersection event.
// Exported for synthetic drivers; re-delivering an event for an already
// revealed target changes nothing.
func (c *Controller) HandleEvent(ev viewport.Event) {
	if !ev.Intersecting || ev.Ratio < c.cfg.Threshold {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.targets[ev.TargetID]
	if !ok || t.revealed {
		return
	}

	delay := time.Duration(t.index) * t.group.Stagger
	t.elem.SetStyle("transition-delay", fmt.Sprintf("%gs", delay.Seconds()))
	t.elem.RemoveClass(HiddenClass)
	t.elem.AddClass(VisibleClass)
	t.revealed = true

	if t.group.sub != nil {
		t.group.sub.Unobserve(ev.TargetID)
	}
	c.logger.Debugf("reveal", "revealed %q (group %q, delay %s)", ev.TargetID, t.group.Name, delay)
}

// TargetStatus is a point-in-time view of one reveal target, used for run
// reports.
type TargetStatus struct {
	ID       string `json:"id"`
	Group    string `json:"group"`
	Index    int    `json:"index"`
	Revealed bool   `json:"revealed"`
	Delay    string `json:"delay,omitempty"`
}

// Snapshot returns the status of every target, grouped in declaration order.
func (c *Controller) Snapshot() []TargetStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []TargetStatus
	for _, g := range c.groups {
		for i, e := range g.Elements {
			t := c.targets[e.ID()]
			st := TargetStatus{ID: e.ID(), Group: g.Name, Index: i, Revealed: t.revealed}
			if t.revealed {
				st.Delay = e.Style("transition-delay")
			}
			out = append(out, st)
		}
	}
	return out
}

// Done reports whether every target has been revealed.
func (c *Controller) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.targets {
		if !t.revealed {
			return false
		}
	}
	return true
}
