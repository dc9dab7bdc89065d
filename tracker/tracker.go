// Package tracker mirrors the viewport visibility of content sections into
// an "active" marker on the table-of-contents links of legal and
// documentation pages. Unlike reveal and counter, tracking is continuous:
// the observer keeps firing for the page's lifetime.
package tracker

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/scrollfx/scrollfx/dom"
	"github.com/scrollfx/scrollfx/log"
	"github.com/scrollfx/scrollfx/viewport"
)

const (
	// DefaultTopMarginPx biases activation toward sections near the top of
	// the screen.
	DefaultTopMarginPx = -100
	// DefaultBottomMarginPercent shrinks the observation root to the upper
	// 30% of the viewport.
	DefaultBottomMarginPercent = -70

	// ActiveClass is the marker applied to the link of the section in view.
	ActiveClass = "active"
)

// Pair binds a content section to the navigation link that references its
// identifier.
type Pair struct {
	Section dom.Element
	Link    dom.Element
}

// Pairs matches sections to fragment links by identifier. Sections without a
// matching link (and links without a section) are dropped silently.
func Pairs(sections []dom.Element, links []dom.Element) []Pair {
	byTarget := make(map[string]dom.Element, len(links))
	for _, l := range links {
		if t := dom.FragmentTarget(l); t != "" {
			byTarget[t] = l
		}
	}
	var pairs []Pair
	for _, s := range sections {
		if l, ok := byTarget[s.ID()]; ok {
			pairs = append(pairs, Pair{Section: s, Link: l})
		}
	}
	return pairs
}

// Options configure a Controller.
type Options struct {
	// PathContains gates the tracker: it only activates when the page path
	// contains one of these substrings.
	PathContains []string
	// Margins override the default observation root margins.
	TopMargin    viewport.Margin
	BottomMargin viewport.Margin
	// ActiveClass overrides the marker class name.
	ActiveClass string
}

// Controller tracks which section is in view and keeps exactly one link
// marked active. When several sections intersect at once the topmost one
// wins; the marker is deliberately deterministic instead of depending on
// observer callback ordering.
type Controller struct {
	logger *log.Logger
	cfg    viewport.Config
	opts   Options

	mu     sync.Mutex
	pairs  map[string]Pair
	order  []string
	inView map[string]float64

	active string
}

// New creates a Controller over the given section/link pairs.
func New(logger *log.Logger, pairs []Pair, opts Options) *Controller {
	if opts.TopMargin == (viewport.Margin{}) {
		opts.TopMargin = viewport.Margin{Pixels: DefaultTopMarginPx}
	}
	if opts.BottomMargin == (viewport.Margin{}) {
		opts.BottomMargin = viewport.Margin{Percent: DefaultBottomMarginPercent}
	}
	if opts.ActiveClass == "" {
		opts.ActiveClass = ActiveClass
	}

	c := &Controller{
		logger: logger,
		cfg: viewport.Config{
			Threshold:        0,
			RootMarginTop:    opts.TopMargin,
			RootMarginBottom: opts.BottomMargin,
		},
		opts:   opts,
		pairs:  make(map[string]Pair, len(pairs)),
		inView: make(map[string]float64),
	}
	for _, p := range pairs {
		c.order = append(c.order, p.Section.ID())
		c.pairs[p.Section.ID()] = p
	}
	return c
}

// ActiveFor reports whether the tracker should run at all for the given page
// path. Landing and tutorial pages have no table of contents, so tracking is
// limited to paths naming the configured substrings.
func (c *Controller) ActiveFor(path string) bool {
	for _, s := range c.opts.PathContains {
		if s != "" && strings.Contains(path, s) {
			return true
		}
	}
	return false
}

// Config returns the observation config the controller subscribes with.
func (c *Controller) Config() viewport.Config { return c.cfg }

// Run observes all paired sections and keeps the active marker current until
// ctx is done. The subscription is never cancelled early; tracking is not
// one-shot.
func (c *Controller) Run(ctx context.Context, src viewport.Source) {
	if len(c.order) == 0 {
		<-ctx.Done()
		return
	}
	sub := src.Observe(ctx, c.order, c.cfg)
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-sub.Events:
			c.HandleEvent(ev)
		}
	}
}

// HandleEvent folds one intersection change into the in-view set and
// re-marks the links. Exported for synthetic drivers.
func (c *Controller) HandleEvent(ev viewport.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pairs[ev.TargetID]; !ok {
		return
	}
	if ev.Intersecting {
		c.inView[ev.TargetID] = ev.Top
	} else {
		delete(c.inView, ev.TargetID)
	}
	c.mark()
}

// mark clears the marker from every link and sets it on the link of the
// topmost in-view section. With nothing in view the previous marker is left
// in place, matching how the page behaves when scrolled between sections.
func (c *Controller) mark() {
	top, best := math.Inf(1), ""
	for id, t := range c.inView {
		if t < top {
			top, best = t, id
		}
	}
	if best == "" || best == c.active {
		return
	}

	for _, p := range c.pairs {
		p.Link.RemoveClass(c.opts.ActiveClass)
	}
	c.pairs[best].Link.AddClass(c.opts.ActiveClass)
	c.active = best
	c.logger.Debugf("tracker", "active section %q", best)
}

// Active returns the id of the currently marked section, "" if none yet.
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Sections returns the paired sections in document order.
func (c *Controller) Sections() []Pair {
	out := make([]Pair, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.pairs[id])
	}
	return out
}
