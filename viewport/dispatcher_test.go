package viewport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrollfx/scrollfx/log"
)

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestDispatcherPublish(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(log.NewNullLogger())
	sub := d.Observe(context.Background(), []string{"a", "b"}, Config{})

	d.Publish(Event{TargetID: "a", Ratio: 1, Intersecting: true})
	d.Publish(Event{TargetID: "c", Ratio: 1, Intersecting: true}) // nobody observes c
	d.Publish(Event{TargetID: "b", Intersecting: false})

	got := drain(sub.Events)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].TargetID)
	assert.Equal(t, "b", got[1].TargetID)
}

func TestDispatcherThreshold(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(log.NewNullLogger())
	sub := d.Observe(context.Background(), []string{"a"}, Config{Threshold: 0.5})

	// Enter events below the threshold are filtered out.
	d.Publish(Event{TargetID: "a", Ratio: 0.2, Intersecting: true})
	assert.Empty(t, drain(sub.Events))

	d.Publish(Event{TargetID: "a", Ratio: 0.8, Intersecting: true})
	require.Len(t, drain(sub.Events), 1)

	// Leave events always pass, whatever their ratio.
	d.Publish(Event{TargetID: "a", Ratio: 0, Intersecting: false})
	require.Len(t, drain(sub.Events), 1)
}

func TestSubscriptionUnobserve(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(log.NewNullLogger())
	sub := d.Observe(context.Background(), []string{"a", "b"}, Config{})

	sub.Unobserve("a")
	sub.Unobserve("a") // idempotent

	d.Publish(Event{TargetID: "a", Ratio: 1, Intersecting: true})
	d.Publish(Event{TargetID: "b", Ratio: 1, Intersecting: true})

	got := drain(sub.Events)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].TargetID)
}

func TestSubscriptionCancel(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(log.NewNullLogger())
	sub := d.Observe(context.Background(), []string{"a"}, Config{})
	other := d.Observe(context.Background(), []string{"a"}, Config{})

	sub.Cancel()
	d.Publish(Event{TargetID: "a", Ratio: 1, Intersecting: true})

	assert.Empty(t, drain(sub.Events))
	assert.Len(t, drain(other.Events), 1)
}

func TestDispatcherFullBufferDrops(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(log.NewNullLogger())
	sub := d.Observe(context.Background(), []string{"a"}, Config{})

	for i := 0; i < subscriptionBuffer+10; i++ {
		d.Publish(Event{TargetID: "a", Ratio: 1, Intersecting: true})
	}
	// Overflow is dropped, not blocked on.
	assert.Len(t, drain(sub.Events), subscriptionBuffer)
}
