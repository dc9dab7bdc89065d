package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/scrollfx/scrollfx/config"
	"github.com/scrollfx/scrollfx/counter"
	"github.com/scrollfx/scrollfx/dom"
	"github.com/scrollfx/scrollfx/log"
	"github.com/scrollfx/scrollfx/storage"
	"github.com/scrollfx/scrollfx/viewport"
)

// Verify drives the controllers of a scanned document through a synthetic
// scroll sweep and checks the effect invariants: every reveal target
// transitions exactly once with its staggered delay, every stat lands on its
// exact parsed value in the expected number of ticks, and at most one
// navigation link ever carries the active marker. It returns the resulting
// run report; a non-nil error describes the first violated invariant.
//
// The sweep is fully synchronous. Counters animate on an inline ticker, so
// verification is deterministic and does not depend on wall-clock timing.
func Verify(ctx context.Context, profile *config.Profile, doc *dom.Document, logger *log.Logger) (*storage.RunReport, error) {
	e, err := FromDocument(profile, doc, Options{
		Logger: logger,
		Ticker: counter.InlineTicker{},
	})
	if err != nil {
		return nil, err
	}

	if err := verifyReveal(e, profile); err != nil {
		return e.Report(), err
	}
	if err := verifyCounters(ctx, e, profile); err != nil {
		return e.Report(), err
	}
	if err := verifyTracker(e, profile); err != nil {
		return e.Report(), err
	}
	return e.Report(), nil
}

func verifyReveal(e *Engine, profile *config.Profile) error {
	stagger := make(map[string]time.Duration, len(profile.Reveal.Groups))
	for _, g := range profile.Reveal.Groups {
		stagger[g.Name] = time.Duration(g.StaggerMillis) * time.Millisecond
	}

	before := e.Reveal.Snapshot()
	for _, st := range before {
		if st.Revealed {
			return fmt.Errorf("reveal: %q (group %q) revealed before any event", st.ID, st.Group)
		}
		ev := viewport.Event{TargetID: st.ID, Ratio: 1, Intersecting: true, Top: float64(st.Index * 100)}
		e.Reveal.HandleEvent(ev)

		// Leaving and re-entering the viewport must not re-apply the
		// transition.
		e.Reveal.HandleEvent(viewport.Event{TargetID: st.ID, Intersecting: false})
		e.Reveal.HandleEvent(ev)
	}

	for _, st := range e.Reveal.Snapshot() {
		if !st.Revealed {
			return fmt.Errorf("reveal: %q (group %q) did not become visible", st.ID, st.Group)
		}
		want := fmt.Sprintf("%gs", (time.Duration(st.Index) * stagger[st.Group]).Seconds())
		if st.Delay != want {
			return fmt.Errorf("reveal: %q delay = %q, want %q", st.ID, st.Delay, want)
		}
	}
	if !e.Reveal.Done() {
		return fmt.Errorf("reveal: sweep finished with unrevealed targets")
	}
	return nil
}

func verifyCounters(ctx context.Context, e *Engine, profile *config.Profile) error {
	for _, st := range e.Counter.Snapshot() {
		e.Counter.HandleEvent(ctx, viewport.Event{TargetID: st.ID, Ratio: 1, Intersecting: true})
	}

	after := e.Counter.Snapshot()
	for _, st := range after {
		if st.State != counter.StateDone.String() {
			return fmt.Errorf("counter: %q finished in state %s", st.ID, st.State)
		}
		want := fmt.Sprintf("%d%s", st.Target, st.Suffix)
		if st.Display != want {
			return fmt.Errorf("counter: %q finished at %q, want %q", st.ID, st.Display, want)
		}
		if st.Target > 0 && st.Ticks != profile.Counter.Steps {
			return fmt.Errorf("counter: %q took %d ticks, want %d", st.ID, st.Ticks, profile.Counter.Steps)
		}
	}

	// Regaining visibility must not restart a finished animation.
	for _, st := range after {
		e.Counter.HandleEvent(ctx, viewport.Event{TargetID: st.ID, Ratio: 1, Intersecting: true})
	}
	for i, st := range e.Counter.Snapshot() {
		if st.Ticks != after[i].Ticks {
			return fmt.Errorf("counter: %q re-triggered after completion", st.ID)
		}
	}
	return nil
}

func verifyTracker(e *Engine, profile *config.Profile) error {
	if !e.Tracker.ActiveFor(profile.Page.Path) {
		return nil
	}
	pairs := e.Tracker.Sections()
	for i, p := range pairs {
		if i > 0 {
			e.Tracker.HandleEvent(viewport.Event{TargetID: pairs[i-1].Section.ID(), Intersecting: false})
		}
		e.Tracker.HandleEvent(viewport.Event{TargetID: p.Section.ID(), Ratio: 0.01, Intersecting: true, Top: float64(i * 400)})

		if got := e.Tracker.Active(); got != p.Section.ID() {
			return fmt.Errorf("tracker: section %q in view but %q marked active", p.Section.ID(), got)
		}
		active := 0
		for _, q := range pairs {
			if q.Link.HasClass(profile.Tracker.ActiveClass) {
				active++
			}
		}
		if active != 1 {
			return fmt.Errorf("tracker: %d links marked active, want exactly 1", active)
		}
	}
	return nil
}
