package memdom

import (
	"slices"

	"github.com/leapstack-labs/resload/pkg/dom"
)

// Element is an in-memory element.
type Element struct {
	doc        *Document
	tag        string
	attrs      map[string]string
	parent     *Element
	children   []*Element
	handlers   map[string][]func()
	readyState string
	loading    bool
}

// Tag returns the tag name.
func (e *Element) Tag() string { return e.tag }

// ID returns the id attribute.
func (e *Element) ID() string { return e.attrs["id"] }

// Attr returns an attribute.
func (e *Element) Attr(key string) (string, bool) {
	v, ok := e.attrs[key]
	return v, ok
}

// SetAttr sets an attribute. Setting the locator of a connected element
// starts a request.
func (e *Element) SetAttr(key, value string) {
	e.attrs[key] = value
	if key == e.locatorKey() {
		e.doc.request(e)
	}
}

// ReadyState returns the simulated readiness state.
func (e *Element) ReadyState() string { return e.readyState }

// Connected reports whether the element is reachable from the root.
func (e *Element) Connected() bool {
	n := e
	for n.parent != nil {
		n = n.parent
	}
	return n == e.doc.root
}

// Prepend inserts child first.
func (e *Element) Prepend(child dom.Element) {
	if c, ok := child.(*Element); ok {
		e.insert(c, true)
	}
}

// Append inserts child last.
func (e *Element) Append(child dom.Element) {
	if c, ok := child.(*Element); ok {
		e.insert(c, false)
	}
}

// Remove detaches the element.
func (e *Element) Remove() {
	if e.parent == nil {
		return
	}
	p := e.parent
	if i := slices.Index(p.children, e); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	e.parent = nil
}

// On registers an event handler.
func (e *Element) On(event string, fn func()) {
	e.handlers[event] = append(e.handlers[event], fn)
}

// Fire dispatches event to every handler synchronously.
func (e *Element) Fire(event string) {
	for _, fn := range slices.Clone(e.handlers[event]) {
		fn()
	}
}

// SetReadyState changes the readiness state and dispatches
// readystatechange.
func (e *Element) SetReadyState(state string) {
	e.readyState = state
	e.Fire(dom.EventReadyStateChange)
}

// Parent returns the parent element, or nil.
func (e *Element) Parent() *Element { return e.parent }

// Children returns a copy of the child list.
func (e *Element) Children() []*Element { return slices.Clone(e.children) }

// Handlers returns how many handlers are registered for event.
func (e *Element) Handlers(event string) int { return len(e.handlers[event]) }

func (e *Element) insert(c *Element, first bool) {
	c.Remove()
	c.parent = e
	if first {
		e.children = slices.Insert(e.children, 0, c)
	} else {
		e.children = append(e.children, c)
	}
	if c.Connected() {
		c.walk(func(el *Element) bool {
			if !el.loading {
				el.doc.request(el)
			}
			return true
		})
	}
}

// walk visits the subtree in document order until fn returns false.
func (e *Element) walk(fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

func (e *Element) locatorKey() string {
	switch e.tag {
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
		return e.attrs[k]
	}
	return ""
}
