package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrollfx/scrollfx/dom"
	"github.com/scrollfx/scrollfx/log"
	"github.com/scrollfx/scrollfx/viewport"
)

func newSection(id string) *dom.Node {
	return dom.NewNode(id, "legal-section")
}

func newLink(target string) *dom.Node {
	n := dom.NewNode("links#"+target, "toc-link")
	n.SetAttr("href", "#"+target)
	return n
}

func newTestPairs(ids ...string) []Pair {
	var sections, links []dom.Element
	for _, id := range ids {
		sections = append(sections, newSection(id))
		links = append(links, newLink(id))
	}
	return Pairs(sections, links)
}

func TestPairs(t *testing.T) {
	t.Parallel()

	sections := []dom.Element{newSection("intro"), newSection("data"), newSection("orphan")}
	links := []dom.Element{newLink("data"), newLink("intro"), newLink("dangling")}

	pairs := Pairs(sections, links)
	require.Len(t, pairs, 2)
	// Pairs follow section document order, not link order.
	assert.Equal(t, "intro", pairs[0].Section.ID())
	assert.Equal(t, "data", pairs[1].Section.ID())
}

func TestActiveFor(t *testing.T) {
	t.Parallel()

	c := New(log.NewNullLogger(), nil, Options{PathContains: []string{"privacy", "terms"}})

	tests := []struct {
		path string
		want bool
	}{
		{"/privacy.html", true},
		{"/legal/terms.html", true},
		{"/index.html", false},
		{"/", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.ActiveFor(tt.path), tt.path)
	}
}

func TestHandleEventSingleActive(t *testing.T) {
	t.Parallel()

	pairs := newTestPairs("intro", "data", "contact")
	c := New(log.NewNullLogger(), pairs, Options{})

	c.HandleEvent(viewport.Event{TargetID: "intro", Intersecting: true, Top: 120})
	assert.Equal(t, "intro", c.Active())

	// Scrolling to the next section moves the single marker.
	c.HandleEvent(viewport.Event{TargetID: "intro", Intersecting: false})
	c.HandleEvent(viewport.Event{TargetID: "data", Intersecting: true, Top: 80})
	assert.Equal(t, "data", c.Active())

	active := 0
	for _, p := range pairs {
		if p.Link.HasClass(ActiveClass) {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestHandleEventTopmostWins(t *testing.T) {
	t.Parallel()

	pairs := newTestPairs("intro", "data")
	c := New(log.NewNullLogger(), pairs, Options{})

	// Both sections intersect; the one closest to the viewport top is marked
	// no matter the event order.
	c.HandleEvent(viewport.Event{TargetID: "data", Intersecting: true, Top: 300})
	c.HandleEvent(viewport.Event{TargetID: "intro", Intersecting: true, Top: 40})
	assert.Equal(t, "intro", c.Active())
	assert.True(t, pairs[0].Link.HasClass(ActiveClass))
	assert.False(t, pairs[1].Link.HasClass(ActiveClass))
}

func TestHandleEventKeepsMarkerBetweenSections(t *testing.T) {
	t.Parallel()

	pairs := newTestPairs("intro", "data")
	c := New(log.NewNullLogger(), pairs, Options{})

	c.HandleEvent(viewport.Event{TargetID: "intro", Intersecting: true, Top: 50})
	c.HandleEvent(viewport.Event{TargetID: "intro", Intersecting: false})

	// Nothing in view: the previous marker stays.
	assert.Equal(t, "intro", c.Active())
	assert.True(t, pairs[0].Link.HasClass(ActiveClass))
}

func TestHandleEventUnknownSection(t *testing.T) {
	t.Parallel()

	c := New(log.NewNullLogger(), newTestPairs("intro"), Options{})
	c.HandleEvent(viewport.Event{TargetID: "footer", Intersecting: true, Top: 10})
	assert.Empty(t, c.Active())
}

func TestOptionsDefaults(t *testing.T) {
	t.Parallel()

	c := New(log.NewNullLogger(), nil, Options{})
	cfg := c.Config()
	assert.Zero(t, cfg.Threshold)
	assert.Equal(t, "-100px 0px -70% 0px", cfg.RootMargin())
}

func TestRunContinuous(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pairs := newTestPairs("intro", "data")
	c := New(log.NewNullLogger(), pairs, Options{})
	d := viewport.NewDispatcher(log.NewNullLogger())

	go c.Run(ctx, d)

	require.Eventually(t, func() bool {
		d.Publish(viewport.Event{TargetID: "intro", Intersecting: true, Top: 100})
		return c.Active() == "intro"
	}, 2*time.Second, 10*time.Millisecond)

	// Tracking is not one-shot; later events keep being applied.
	require.Eventually(t, func() bool {
		d.Publish(viewport.Event{TargetID: "intro", Intersecting: false})
		d.Publish(viewport.Event{TargetID: "data", Intersecting: true, Top: 100})
		return c.Active() == "data"
	}, 2*time.Second, 10*time.Millisecond)
}
