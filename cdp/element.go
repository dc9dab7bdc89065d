package cdp

import (
	"context"
	"fmt"

	"github.com/scrollfx/scrollfx/dom"
	"github.com/scrollfx/scrollfx/log"
)

// RemoteElement is a dom.Element living in the attached page. Mutations are
// applied through Runtime.evaluate; the dom.Element interface is
// fire-and-forget, so failures are logged and otherwise swallowed, matching
// how the in-page script would silently skip missing elements.
type RemoteElement struct {
	ctx     context.Context
	client  *Client
	logger  *log.Logger
	id      string
	locator string
}

var _ dom.Element = &RemoteElement{}

// NewRemoteElement returns a handle to a page element. locator is a
// JavaScript expression evaluating to the node, typically
// `document.querySelectorAll(".stat-number")[2]`, which mirrors how the
// in-page bridge enumerates its observation targets.
func NewRemoteElement(ctx context.Context, client *Client, logger *log.Logger, id, locator string) *RemoteElement {
	return &RemoteElement{ctx: ctx, client: client, logger: logger, id: id, locator: locator}
}

// Locator returns a handle addressed by CSS class and position, matching the
// target identifiers the bridge reports for elements without a markup id.
func Locator(class string, index int) string {
	return fmt.Sprintf("document.querySelectorAll(%q)[%d]", "."+class, index)
}

// ID implements dom.Element.
func (e *RemoteElement) ID() string { return e.id }

// HasClass implements dom.Element.
func (e *RemoteElement) HasClass(name string) bool {
	var has bool
	e.query(fmt.Sprintf("classList.contains(%q)", name), &has)
	return has
}

// AddClass implements dom.Element.
func (e *RemoteElement) AddClass(name string) {
	e.apply(fmt.Sprintf("classList.add(%q)", name))
}

// RemoveClass implements dom.Element.
func (e *RemoteElement) RemoveClass(name string) {
	e.apply(fmt.Sprintf("classList.remove(%q)", name))
}

// Style implements dom.Element.
func (e *RemoteElement) Style(prop string) string {
	var v string
	e.query(fmt.Sprintf("style.getPropertyValue(%q)", prop), &v)
	return v
}

// SetStyle implements dom.Element.
func (e *RemoteElement) SetStyle(prop, value string) {
	e.apply(fmt.Sprintf("style.setProperty(%q, %q)", prop, value))
}

// Text implements dom.Element.
func (e *RemoteElement) Text() string {
	var v string
	e.query("textContent", &v)
	return v
}

// SetText implements dom.Element.
func (e *RemoteElement) SetText(s string) {
	e.apply(fmt.Sprintf("textContent = %q", s))
}

// Attr implements dom.Element.
func (e *RemoteElement) Attr(name string) string {
	var v string
	e.query(fmt.Sprintf("getAttribute(%q) || ''", name), &v)
	return v
}

func (e *RemoteElement) expr(member string) string {
	return fmt.Sprintf("(function(n){ if (!n) { return null; } return n.%s; })(%s)", member, e.locator)
}

func (e *RemoteElement) apply(member string) {
	if err := e.client.Runtime.Evaluate(e.ctx, e.expr(member), nil); err != nil {
		e.logger.Warnf("cdp", "applying %s to %q: %v", member, e.id, err)
	}
}

func (e *RemoteElement) query(member string, out any) {
	if err := e.client.Runtime.Evaluate(e.ctx, e.expr(member), out); err != nil {
		e.logger.Warnf("cdp", "reading %s of %q: %v", member, e.id, err)
	}
}
