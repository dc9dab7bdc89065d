package cdp

import (
	"context"
	"sync"

	"github.com/chromedp/cdproto"

	"github.com/scrollfx/scrollfx/log"
)

// Event is a decoded CDP event received from the browser.
type Event struct {
	Name cdproto.MethodType
	Data any
}

// eventWatcher fans received CDP events out to method subscribers.
type eventWatcher struct {
	ctx    context.Context
	logger *log.Logger

	subsMu sync.RWMutex
	subs   map[cdproto.MethodType]map[int]chan *Event
	nextID int
}

func newEventWatcher(ctx context.Context, logger *log.Logger) *eventWatcher {
	return &eventWatcher{
		ctx:    ctx,
		logger: logger,
		subs:   make(map[cdproto.MethodType]map[int]chan *Event),
	}
}

// subscribe returns a channel notified for each of the given CDP methods and
// a function that unsubscribes and stops deliveries.
func (w *eventWatcher) subscribe(events ...cdproto.MethodType) (<-chan *Event, func()) {
	w.subsMu.Lock()
	defer w.subsMu.Unlock()

	id := w.nextID
	w.nextID++
	ch := make(chan *Event, 16)
	for _, evt := range events {
		if w.subs[evt] == nil {
			w.subs[evt] = make(map[int]chan *Event)
		}
		w.subs[evt][id] = ch
	}

	cancel := func() {
		w.subsMu.Lock()
		defer w.subsMu.Unlock()
		for _, evt := range events {
			delete(w.subs[evt], id)
		}
	}
	return ch, cancel
}

func (w *eventWatcher) notify(evt *Event) {
	w.subsMu.RLock()
	defer w.subsMu.RUnlock()

	for _, ch := range w.subs[evt.Name] {
		select {
		case ch <- evt:
		case <-w.ctx.Done():
			return
		default:
			w.logger.Warnf("cdp", "subscriber busy, dropping %s event", evt.Name)
		}
	}
}
