package reveal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrollfx/scrollfx/dom"
	"github.com/scrollfx/scrollfx/log"
	"github.com/scrollfx/scrollfx/viewport"
)

func newGroup(name string, stagger time.Duration, n int) Group {
	g := Group{Name: name, Stagger: stagger}
	for i := 0; i < n; i++ {
		g.Elements = append(g.Elements, dom.NewNode(fmt.Sprintf("%s#%d", name, i), "card"))
	}
	return g
}

func TestNewHidesElements(t *testing.T) {
	t.Parallel()

	g := newGroup("cards", 100*time.Millisecond, 3)
	c := New(log.NewNullLogger(), viewport.Config{}, []Group{g})

	for _, e := range g.Elements {
		assert.True(t, e.HasClass(HiddenClass))
		assert.False(t, e.HasClass(VisibleClass))
	}
	assert.False(t, c.Done())
}

func TestHandleEventStaggeredDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stagger time.Duration
		delays  []string
	}{
		{100 * time.Millisecond, []string{"0s", "0.1s", "0.2s"}},
		{200 * time.Millisecond, []string{"0s", "0.2s", "0.4s"}},
		{150 * time.Millisecond, []string{"0s", "0.15s", "0.3s"}},
	}
	for _, tt := range tests {
		t.Run(tt.stagger.String(), func(t *testing.T) {
			t.Parallel()

			g := newGroup("cards", tt.stagger, 3)
			c := New(log.NewNullLogger(), viewport.Config{}, []Group{g})

			for i, e := range g.Elements {
				c.HandleEvent(viewport.Event{TargetID: e.ID(), Ratio: 1, Intersecting: true})
				assert.Equal(t, tt.delays[i], e.Style("transition-delay"))
				assert.True(t, e.HasClass(VisibleClass))
				assert.False(t, e.HasClass(HiddenClass))
			}
			assert.True(t, c.Done())
		})
	}
}

func TestHandleEventOneShot(t *testing.T) {
	t.Parallel()

	g := newGroup("cards", 100*time.Millisecond, 2)
	c := New(log.NewNullLogger(), viewport.Config{}, []Group{g})

	second := g.Elements[1]
	ev := viewport.Event{TargetID: second.ID(), Ratio: 1, Intersecting: true}
	c.HandleEvent(ev)
	require.Equal(t, "0.1s", second.Style("transition-delay"))

	// Leaving and re-entering must not touch the element again.
	second.SetStyle("transition-delay", "tampered")
	c.HandleEvent(viewport.Event{TargetID: second.ID(), Intersecting: false})
	c.HandleEvent(ev)
	assert.Equal(t, "tampered", second.Style("transition-delay"))
	assert.True(t, second.HasClass(VisibleClass))
}

func TestHandleEventBelowThreshold(t *testing.T) {
	t.Parallel()

	g := newGroup("cards", 0, 1)
	c := New(log.NewNullLogger(), viewport.Config{Threshold: 0.5}, []Group{g})

	c.HandleEvent(viewport.Event{TargetID: g.Elements[0].ID(), Ratio: 0.2, Intersecting: true})
	assert.True(t, g.Elements[0].HasClass(HiddenClass))

	c.HandleEvent(viewport.Event{TargetID: g.Elements[0].ID(), Ratio: 0.6, Intersecting: true})
	assert.True(t, g.Elements[0].HasClass(VisibleClass))
}

func TestHandleEventUnknownTarget(t *testing.T) {
	t.Parallel()

	c := New(log.NewNullLogger(), viewport.Config{}, []Group{newGroup("cards", 0, 1)})
	c.HandleEvent(viewport.Event{TargetID: "nope", Ratio: 1, Intersecting: true})
	assert.False(t, c.Done())
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	groups := []Group{
		newGroup("cards", 100*time.Millisecond, 2),
		newGroup("steps", 200*time.Millisecond, 1),
	}
	c := New(log.NewNullLogger(), viewport.Config{}, groups)
	c.HandleEvent(viewport.Event{TargetID: "cards#1", Ratio: 1, Intersecting: true})

	snap := c.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, TargetStatus{ID: "cards#0", Group: "cards", Index: 0}, snap[0])
	assert.Equal(t, TargetStatus{ID: "cards#1", Group: "cards", Index: 1, Revealed: true, Delay: "0.1s"}, snap[1])
	assert.Equal(t, TargetStatus{ID: "steps#0", Group: "steps", Index: 0}, snap[2])
}

func TestRunMultipleGroups(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groups := []Group{
		newGroup("cards", 100*time.Millisecond, 2),
		{Name: "empty"},
		newGroup("steps", 200*time.Millisecond, 2),
	}
	c := New(log.NewNullLogger(), viewport.Config{}, groups)
	d := viewport.NewDispatcher(log.NewNullLogger())

	go c.Run(ctx, d)

	require.Eventually(t, func() bool {
		for _, id := range []string{"cards#0", "cards#1", "steps#0", "steps#1"} {
			d.Publish(viewport.Event{TargetID: id, Ratio: 1, Intersecting: true})
		}
		return c.Done()
	}, 2*time.Second, 10*time.Millisecond)
}
