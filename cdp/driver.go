package cdp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto"
	cdpr "github.com/chromedp/cdproto/runtime"

	"github.com/scrollfx/scrollfx/js"
	"github.com/scrollfx/scrollfx/log"
	"github.com/scrollfx/scrollfx/viewport"
)

// Driver connects the effect engine to a live page: it installs the
// IntersectionObserver bridge and pumps the entries the bridge posts into
// the viewport dispatcher the controllers subscribe to.
type Driver struct {
	client     *Client
	dispatcher *viewport.Dispatcher
	logger     *log.Logger
}

// NewDriver returns a Driver publishing into dispatcher.
func NewDriver(client *Client, dispatcher *viewport.Dispatcher, logger *log.Logger) *Driver {
	return &Driver{
		client:     client,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Install validates the bridge script, registers the emit binding, installs
// the bridge for new documents, and reloads the page so the current document
// gets it too.
func (d *Driver) Install(ctx context.Context, groups []js.ObserverGroup) error {
	if err := js.Validate(); err != nil {
		return err
	}
	script, err := js.InstallScript(groups)
	if err != nil {
		return err
	}

	if err := d.client.Runtime.Enable(ctx); err != nil {
		return err
	}
	if err := d.client.Page.Enable(ctx); err != nil {
		return err
	}
	if err := d.client.Runtime.AddBinding(ctx, js.EmitBinding); err != nil {
		return err
	}
	if _, err := d.client.Page.AddScriptToEvaluateOnNewDocument(ctx, script); err != nil {
		return err
	}
	if err := d.client.Page.Reload(ctx); err != nil {
		return err
	}

	d.logger.Infof("cdp", "bridge installed for %d observer groups", len(groups))
	return nil
}

// Pump decodes bridge entries from Runtime.bindingCalled events and
// publishes them as viewport events until ctx is done.
func (d *Driver) Pump(ctx context.Context) {
	events, cancel := d.client.Subscribe(cdproto.EventRuntimeBindingCalled)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-events:
			bc, ok := evt.Data.(*cdpr.EventBindingCalled)
			if !ok || bc.Name != js.EmitBinding {
				continue
			}
			var entry js.Entry
			if err := json.Unmarshal([]byte(bc.Payload), &entry); err != nil {
				d.logger.Warnf("cdp", "discarding malformed bridge entry: %v", err)
				continue
			}
			d.dispatcher.Publish(viewport.Event{
				TargetID:     entry.Target,
				Ratio:        entry.Ratio,
				Intersecting: entry.Intersecting,
				Top:          entry.Top,
			})
		}
	}
}

// PagePath returns the pathname of the page's current location, used to gate
// the section tracker.
func (d *Driver) PagePath(ctx context.Context) (string, error) {
	var path string
	if err := d.client.Runtime.Evaluate(ctx, "window.location.pathname", &path); err != nil {
		return "", fmt.Errorf("reading page path: %w", err)
	}
	return path, nil
}
