package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document holds the elements scanned from a static HTML page, indexed the
// way the effect controllers look them up: by class, by id and by link
// fragment. A missing class or id is not an error; lookups return empty
// results and the controllers do no work for them.
type Document struct {
	nodes   []*Node
	byClass map[string][]*Node
	byID    map[string]*Node
	links   []*Node
}

// Scan parses the HTML read from r and collects every element that carries a
// class, an id, or a fragment href. Elements without an id attribute get a
// synthesized "tag#n" identifier so they can still be targeted by the
// viewport source.
func Scan(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page HTML: %w", err)
	}

	d := &Document{
		byClass: make(map[string][]*Node),
		byID:    make(map[string]*Node),
	}
	d.walk(root)
	return d, nil
}

func (d *Document) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		d.collect(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.walk(c)
	}
}

func (d *Document) collect(n *html.Node) {
	var id, class, href string
	for _, a := range n.Attr {
		switch a.Key {
		case "id":
			id = a.Val
		case "class":
			class = a.Val
		case "href":
			href = a.Val
		}
	}

	isLink := n.Data == "a" && strings.HasPrefix(href, "#")
	if id == "" && class == "" && !isLink {
		return
	}

	synthetic := id == ""
	if synthetic {
		id = fmt.Sprintf("%s#%d", n.Data, len(d.nodes))
	}
	node := NewNode(id, strings.Fields(class)...)
	node.synthetic = synthetic
	node.SetText(strings.TrimSpace(textContent(n)))
	for _, a := range n.Attr {
		node.SetAttr(a.Key, a.Val)
	}

	d.nodes = append(d.nodes, node)
	for _, c := range strings.Fields(class) {
		d.byClass[c] = append(d.byClass[c], node)
	}
	// First occurrence wins for duplicate ids, as in the DOM.
	if _, ok := d.byID[node.id]; !ok {
		d.byID[node.id] = node
	}
	if isLink {
		d.links = append(d.links, node)
	}
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// ByClass returns the elements carrying the given class, in document order.
func (d *Document) ByClass(name string) []*Node {
	return d.byClass[name]
}

// ByID returns the element with the given identifier, or nil.
func (d *Document) ByID(id string) *Node {
	return d.byID[id]
}

// FragmentLinks returns every anchor whose href is a "#fragment" reference,
// in document order.
func (d *Document) FragmentLinks() []*Node {
	return d.links
}

// Elements returns all collected elements in document order.
func (d *Document) Elements() []*Node {
	return d.nodes
}
