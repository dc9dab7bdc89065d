// Package dom models the page elements the effect controllers observe and
// mutate. Controllers only ever see the Element interface; the concrete
// element may live in-memory (scanned from static HTML) or in a real page
// behind a CDP session.
package dom

import (
	"sort"
	"strings"
	"sync"
)

// Element is a handle to a single page element.
type Element interface {
	// ID returns a stable identifier for the element. For elements without
	// an id attribute the scanner synthesizes one.
	ID() string

	HasClass(name string) bool
	AddClass(name string)
	RemoveClass(name string)

	// Style returns the value of an inline style property, or "".
	Style(prop string) string
	SetStyle(prop, value string)

	Text() string
	SetText(s string)

	// Attr returns the value of an HTML attribute, or "".
	Attr(name string) string
}

// Node is an in-memory Element. It is safe for concurrent use, as the
// controllers mutate elements from their own goroutines.
type Node struct {
	id        string
	synthetic bool

	mu      sync.RWMutex
	classes map[string]struct{}
	styles  map[string]string
	text    string
	attrs   map[string]string
}

// NewNode creates an in-memory element with the given id and classes.
func NewNode(id string, classes ...string) *Node {
	n := &Node{
		id:      id,
		classes: make(map[string]struct{}, len(classes)),
		styles:  make(map[string]string),
		attrs:   make(map[string]string),
	}
	for _, c := range classes {
		n.classes[c] = struct{}{}
	}
	return n
}

// ID implements Element.
func (n *Node) ID() string { return n.id }

// SyntheticID reports whether the identifier was synthesized by the scanner
// rather than taken from an id attribute in the markup.
func (n *Node) SyntheticID() bool { return n.synthetic }

// HasClass implements Element.
func (n *Node) HasClass(name string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.classes[name]
	return ok
}

// AddClass implements Element.
func (n *Node) AddClass(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.classes[name] = struct{}{}
}

// RemoveClass implements Element.
func (n *Node) RemoveClass(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.classes, name)
}

// Classes returns the element's class names, sorted.
func (n *Node) Classes() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	cs := make([]string, 0, len(n.classes))
	for c := range n.classes {
		cs = append(cs, c)
	}
	sort.Strings(cs)
	return cs
}

// Style implements Element.
func (n *Node) Style(prop string) string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.styles[prop]
}

// SetStyle implements Element.
func (n *Node) SetStyle(prop, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.styles[prop] = value
}

// Text implements Element.
func (n *Node) Text() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.text
}

// SetText implements Element.
func (n *Node) SetText(s string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.text = s
}

// Attr implements Element.
func (n *Node) Attr(name string) string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.attrs[name]
}

// SetAttr sets an HTML attribute on the in-memory node.
func (n *Node) SetAttr(name, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attrs[name] = value
}

type renamed struct {
	Element
	id string
}

func (r renamed) ID() string { return r.id }

// WithID returns e under a different identifier. The engine uses it to give
// elements without a markup id the same canonical "group#index" identifiers
// the in-page bridge reports.
func WithID(e Element, id string) Element {
	if e.ID() == id {
		return e
	}
	return renamed{Element: e, id: id}
}

// FragmentTarget returns the identifier a link element points at, i.e. the
// href with its leading "#" stripped. Returns "" for non-fragment links.
func FragmentTarget(e Element) string {
	href := e.Attr("href")
	if !strings.HasPrefix(href, "#") {
		return ""
	}
	return strings.TrimPrefix(href, "#")
}
