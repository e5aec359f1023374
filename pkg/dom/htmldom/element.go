package htmldom

import (
	"golang.org/x/net/html"

	"github.com/leapstack-labs/resload/pkg/dom"
)

// Element wraps one element node.
type Element struct {
	doc        *Document
	node       *html.Node
	handlers   map[string][]func()
	markers    map[string]any
	readyState string
	requested  string
}

// Node returns the underlying node.
func (e *Element) Node() *html.Node { return e.node }

// Tag returns the tag name.
func (e *Element) Tag() string { return e.node.Data }

// ID returns the id attribute.
func (e *Element) ID() string { return attr(e.node, "id") }

// Attr returns an attribute.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets an attribute. Setting a new locator on a connected element
// starts a transfer.
func (e *Element) SetAttr(key, value string) {
	set := false
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == key {
			e.node.Attr[i].Val = value
			set = true
			break
		}
	}
	if !set {
		e.node.Attr = append(e.node.Attr, html.Attribute{Key: key, Val: value})
	}
	if key == e.locatorKey() {
		e.doc.request(e)
	}
}

// ReadyState returns "loading" during a transfer and "complete" after a
// successful one.
func (e *Element) ReadyState() string { return e.readyState }

// Connected reports whether the node is reachable from the document root.
func (e *Element) Connected() bool {
	n := e.node
	for n.Parent != nil {
		n = n.Parent
	}
	return n == e.doc.root
}

// Prepend inserts child as the first child.
func (e *Element) Prepend(child dom.Element) {
	c, ok := child.(*Element)
	if !ok {
		return
	}
	c.Remove()
	e.node.InsertBefore(c.node, e.node.FirstChild)
	e.connected(c)
}

// Append inserts child as the last child.
func (e *Element) Append(child dom.Element) {
	c, ok := child.(*Element)
	if !ok {
		return
	}
	c.Remove()
	e.node.AppendChild(c.node)
	e.connected(c)
}

// Remove detaches the element.
func (e *Element) Remove() {
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
}

// On registers an event handler.
func (e *Element) On(event string, fn func()) {
	e.handlers[event] = append(e.handlers[event], fn)
}

func (e *Element) fire(event string) {
	for _, fn := range append([]func(){}, e.handlers[event]...) {
		fn()
	}
}

// connected starts transfers for c's subtree once it is in the document.
// Elements that already requested their locator are not fetched again.
func (e *Element) connected(c *Element) {
	if !c.Connected() {
		return
	}
	walk(c.node, func(n *html.Node) bool {
		e.doc.request(e.doc.wrap(n))
		return true
	})
}

func (e *Element) locatorKey() string {
	switch e.node.Data {
	case "script":
		return "src"
	case "link":
		return "href"
	case "object":
		return "data"
	}
	return ""
}

func (e *Element) locator() string {
	if k := e.locatorKey(); k != "" {
		return attr(e.node, k)
	}
	return ""
}
