// Package engine composes the effect controllers over a page: it scans the
// markup contract out of a document, wires every controller to a shared
// visibility source, and owns their lifecycle. Controllers are plain
// instances constructed here once; there is no global state to look up.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/scrollfx/scrollfx/config"
	"github.com/scrollfx/scrollfx/counter"
	"github.com/scrollfx/scrollfx/dom"
	"github.com/scrollfx/scrollfx/log"
	"github.com/scrollfx/scrollfx/reveal"
	"github.com/scrollfx/scrollfx/storage"
	"github.com/scrollfx/scrollfx/trace"
	"github.com/scrollfx/scrollfx/tracker"
	"github.com/scrollfx/scrollfx/viewport"
)

// Group names under which non-reveal targets are observed. The in-page
// bridge derives target identifiers from these for elements without a
// markup id, so the engine and the bridge must agree on them.
const (
	StatsGroup    = "stats"
	SectionsGroup = "sections"
	LinksGroup    = "links"
)

// Target describes one scanned element the engine is about to hand to a
// controller.
type Target struct {
	// ID is the canonical observation identifier: the markup id when the
	// element has one, "group#index" otherwise.
	ID    string
	Class string
	Index int
	Node  *dom.Node
}

// Binder turns a scanned target into the element handle a controller
// mutates. The default binder keeps the in-memory node; the CDP runner
// substitutes live page handles.
type Binder func(t Target) dom.Element

// Options configure an Engine beyond what the profile carries.
type Options struct {
	// Logger defaults to a null logger.
	Logger *log.Logger
	// Tracer defaults to a noop tracer.
	Tracer *trace.Tracer
	// Ticker overrides the counter animation scheduler. Nil means the
	// wall-clock interval ticker.
	Ticker counter.Ticker
	// Bind overrides the element binder.
	Bind Binder
}

// Engine owns the three controllers of one page.
type Engine struct {
	logger *log.Logger
	tracer *trace.Tracer

	pagePath string

	Reveal  *reveal.Controller
	Counter *counter.Controller
	Tracker *tracker.Controller
}

// FromDocument builds an Engine for the given scanned document. Groups or
// stats missing from the document simply produce controllers with no
// targets; that is the normal situation on pages that don't carry them.
func FromDocument(profile *config.Profile, doc *dom.Document, opts Options) (*Engine, error) {
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNullLogger()
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.NewNoopTracer(opts.Logger)
	}
	if opts.Bind == nil {
		opts.Bind = func(t Target) dom.Element { return dom.WithID(t.Node, t.ID) }
	}

	var groups []reveal.Group
	for _, g := range profile.Reveal.Groups {
		groups = append(groups, reveal.Group{
			Name:     g.Name,
			Stagger:  time.Duration(g.StaggerMillis) * time.Millisecond,
			Elements: bindClass(doc, g.Class, g.Name, opts.Bind),
		})
	}

	revealCfg := viewport.Config{
		Threshold:        profile.Reveal.Threshold,
		RootMarginBottom: viewport.Margin{Pixels: profile.Reveal.BottomMarginPx},
	}

	e := &Engine{
		logger:   opts.Logger,
		tracer:   opts.Tracer,
		pagePath: profile.Page.Path,
		Reveal:   reveal.New(opts.Logger, revealCfg, groups),
		Counter: counter.New(opts.Logger, bindClass(doc, profile.Counter.Class, StatsGroup, opts.Bind), counter.Options{
			Threshold:  profile.Counter.Threshold,
			TickPeriod: profile.TickPeriod(),
			Steps:      profile.Counter.Steps,
			Ticker:     opts.Ticker,
		}),
		Tracker: tracker.New(opts.Logger, tracker.Pairs(
			bindClass(doc, profile.Tracker.SectionClass, SectionsGroup, opts.Bind),
			bindClass(doc, profile.Tracker.LinkClass, LinksGroup, opts.Bind),
		), tracker.Options{
			PathContains: profile.Tracker.PathContains,
			TopMargin:    viewport.Margin{Pixels: profile.Tracker.TopMarginPx},
			BottomMargin: viewport.Margin{Percent: profile.Tracker.BottomMarginPercent},
			ActiveClass:  profile.Tracker.ActiveClass,
		}),
	}
	return e, nil
}

// Run subscribes every applicable controller to src and blocks until ctx is
// done. The section tracker only runs on pages its path filter names; the
// reveal and counter controllers run everywhere. Cancelling ctx discards all
// observers and timers, which is exactly what navigating away does to the
// original page.
func (e *Engine) Run(ctx context.Context, src viewport.Source) {
	ctx, span := e.tracer.StartRun(ctx, e.pagePath)
	defer span.End()

	go func() {
		ctx, span := e.tracer.StartPhase(ctx, "reveal", len(e.Reveal.Snapshot()))
		defer span.End()
		e.Reveal.Run(ctx, src)
	}()
	go func() {
		ctx, span := e.tracer.StartPhase(ctx, "counter", len(e.Counter.Snapshot()))
		defer span.End()
		e.Counter.Run(ctx, src)
	}()
	if e.Tracker.ActiveFor(e.pagePath) {
		go func() {
			ctx, span := e.tracer.StartPhase(ctx, "tracker", len(e.Tracker.Sections()))
			defer span.End()
			e.Tracker.Run(ctx, src)
		}()
	} else {
		e.logger.Debugf("engine", "section tracker inactive for %q", e.pagePath)
	}

	<-ctx.Done()
}

// Report assembles the current controller state into a run report.
func (e *Engine) Report() *storage.RunReport {
	return &storage.RunReport{
		Page:          e.pagePath,
		GeneratedAt:   time.Now().UTC(),
		Reveal:        e.Reveal.Snapshot(),
		Counter:       e.Counter.Snapshot(),
		ActiveSection: e.Tracker.Active(),
	}
}

func bindClass(doc *dom.Document, class, group string, bind Binder) []dom.Element {
	nodes := doc.ByClass(class)
	if len(nodes) == 0 {
		return nil
	}
	out := make([]dom.Element, len(nodes))
	for i, n := range nodes {
		id := n.ID()
		if n.SyntheticID() {
			id = fmt.Sprintf("%s#%d", group, i)
		}
		out[i] = bind(Target{ID: id, Class: class, Index: i, Node: n})
	}
	return out
}
