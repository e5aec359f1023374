//go:build js && wasm

package jsdom

import (
	"strings"
	"syscall/js"

	"github.com/leapstack-labs/resload/pkg/dom"
)

// Element wraps a browser element.
type Element struct {
	doc *Document
	v   js.Value
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string { return strings.ToLower(e.v.Get("tagName").String()) }

// ID returns the id property.
func (e *Element) ID() string { return e.v.Get("id").String() }

// Attr calls getAttribute.
func (e *Element) Attr(key string) (string, bool) {
	v := e.v.Call("getAttribute", key)
	if v.IsNull() {
		return "", false
	}
	return v.String(), true
}

// SetAttr calls setAttribute.
func (e *Element) SetAttr(key, value string) { e.v.Call("setAttribute", key, value) }

// ReadyState returns the readyState property, or "".
func (e *Element) ReadyState() string {
	v := e.v.Get("readyState")
	if v.IsUndefined() || v.IsNull() {
		return ""
	}
	return v.String()
}

// Connected returns the isConnected property.
func (e *Element) Connected() bool { return e.v.Get("isConnected").Truthy() }

// Prepend inserts child before the first child.
func (e *Element) Prepend(child dom.Element) {
	if c, ok := child.(*Element); ok {
		e.v.Call("insertBefore", c.v, e.v.Get("firstChild"))
	}
}

// Append calls appendChild.
func (e *Element) Append(child dom.Element) {
	if c, ok := child.(*Element); ok {
		e.v.Call("appendChild", c.v)
	}
}

// Remove detaches the element from its parent.
func (e *Element) Remove() {
	if p := e.v.Get("parentNode"); !p.IsNull() && !p.IsUndefined() {
		p.Call("removeChild", e.v)
	}
}

// On adds an event listener. The element's listeners are removed and
// released one tick after it completes, or when its markers are forgotten.
func (e *Element) On(event string, fn func()) {
	id := e.ID()
	f := js.FuncOf(func(js.Value, []js.Value) any {
		fn()
		if event == dom.EventLoad || e.complete() {
			Scheduler{}.Defer(func() { e.doc.release(e.v, id) })
		}
		return nil
	})
	e.doc.funcs[id] = append(e.doc.funcs[id], listener{event: event, f: f})
	e.v.Call("addEventListener", event, f)
}

func (e *Element) complete() bool {
	switch e.ReadyState() {
	case "loaded", "complete":
		return true
	}
	return false
}

// Value returns the underlying element.
func (e *Element) Value() js.Value { return e.v }
