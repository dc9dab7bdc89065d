package cdp

import (
	"context"
	"testing"

	"github.com/chromedp/cdproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrollfx/scrollfx/log"
)

func TestEventWatcherSubscribe(t *testing.T) {
	t.Parallel()

	w := newEventWatcher(context.Background(), log.NewNullLogger())
	ch, cancel := w.subscribe(cdproto.EventRuntimeBindingCalled)
	defer cancel()

	w.notify(&Event{Name: cdproto.EventRuntimeBindingCalled, Data: "payload"})
	w.notify(&Event{Name: cdproto.EventPageLoadEventFired}) // not subscribed

	select {
	case evt := <-ch:
		assert.Equal(t, cdproto.MethodType(cdproto.EventRuntimeBindingCalled), evt.Name)
		assert.Equal(t, "payload", evt.Data)
	default:
		t.Fatal("expected a delivered event")
	}
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %s", evt.Name)
	default:
	}
}

func TestEventWatcherCancel(t *testing.T) {
	t.Parallel()

	w := newEventWatcher(context.Background(), log.NewNullLogger())
	ch, cancel := w.subscribe(cdproto.EventRuntimeBindingCalled)
	cancel()

	w.notify(&Event{Name: cdproto.EventRuntimeBindingCalled})
	select {
	case <-ch:
		t.Fatal("cancelled subscriber must not be notified")
	default:
	}
}

func TestEventWatcherMultipleSubscribers(t *testing.T) {
	t.Parallel()

	w := newEventWatcher(context.Background(), log.NewNullLogger())
	ch1, cancel1 := w.subscribe(cdproto.EventRuntimeBindingCalled)
	defer cancel1()
	ch2, cancel2 := w.subscribe(cdproto.EventRuntimeBindingCalled, cdproto.EventPageLoadEventFired)
	defer cancel2()

	w.notify(&Event{Name: cdproto.EventRuntimeBindingCalled})
	w.notify(&Event{Name: cdproto.EventPageLoadEventFired})

	require.Len(t, ch1, 1)
	require.Len(t, ch2, 2)
}

func TestEventWatcherDropsWhenBusy(t *testing.T) {
	t.Parallel()

	w := newEventWatcher(context.Background(), log.NewNullLogger())
	ch, cancel := w.subscribe(cdproto.EventRuntimeBindingCalled)
	defer cancel()

	for i := 0; i < cap(ch)+5; i++ {
		w.notify(&Event{Name: cdproto.EventRuntimeBindingCalled})
	}
	assert.Len(t, ch, cap(ch))
}
