package viewport

import (
	"context"
	"sync"

	"github.com/scrollfx/scrollfx/log"
)

const subscriptionBuffer = 16

// Subscription is one active observation of a set of targets. Events are
// delivered on Events; Unobserve drops a single target while keeping the
// rest, Cancel drops the whole subscription.
type Subscription struct {
	// Events delivers the intersection events for the subscribed targets.
	Events <-chan Event

	ch  chan Event
	ctx context.Context
	cfg Config
	d   *Dispatcher

	mu      sync.Mutex
	targets map[string]struct{}
}

// Unobserve stops delivering events for the given target. Other targets of
// the subscription are unaffected. Unobserving an unknown target is a no-op.
func (s *Subscription) Unobserve(targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.targets, targetID)
}

// Cancel drops the subscription entirely. Events published afterwards are
// not delivered.
func (s *Subscription) Cancel() {
	s.d.remove(s)
}

func (s *Subscription) observes(targetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.targets[targetID]
	return ok
}

// Dispatcher is the in-process implementation of Source. The CDP driver
// publishes decoded IntersectionObserver entries into it, and tests publish
// synthetic events directly.
type Dispatcher struct {
	logger *log.Logger

	subsMu sync.RWMutex
	subs   []*Subscription
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher(logger *log.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Observe implements Source. Observing zero targets is valid and yields a
// subscription that never fires.
func (d *Dispatcher) Observe(ctx context.Context, targetIDs []string, cfg Config) *Subscription {
	sub := &Subscription{
		ch:      make(chan Event, subscriptionBuffer),
		ctx:     ctx,
		cfg:     cfg,
		d:       d,
		targets: make(map[string]struct{}, len(targetIDs)),
	}
	sub.Events = sub.ch
	for _, id := range targetIDs {
		sub.targets[id] = struct{}{}
	}

	d.subsMu.Lock()
	d.subs = append(d.subs, sub)
	d.subsMu.Unlock()

	return sub
}

// Publish delivers ev to every live subscription observing its target. Leave
// events are always delivered; enter events only once the subscription's
// threshold is met, mirroring IntersectionObserver threshold semantics.
// Publishing to a target nobody observes is a no-op.
func (d *Dispatcher) Publish(ev Event) {
	d.subsMu.RLock()
	defer d.subsMu.RUnlock()

	for _, sub := range d.subs {
		if !sub.observes(ev.TargetID) {
			continue
		}
		if ev.Intersecting && ev.Ratio < sub.cfg.Threshold {
			continue
		}
		select {
		case sub.ch <- ev:
		case <-sub.ctx.Done():
		default:
			d.logger.Warnf("viewport", "subscriber queue full, dropping event for %q", ev.TargetID)
		}
	}
}

func (d *Dispatcher) remove(sub *Subscription) {
	d.subsMu.Lock()
	defer d.subsMu.Unlock()
	for i, s := range d.subs {
		if s == sub {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}
