//go:build js && wasm

// Package jsdom binds dom.Document to the browser document through
// syscall/js.
//
// Element wrappers are created per lookup, so the package keeps the loaded
// marker on the underlying node (Document implements dom.MarkerStore) and
// the core never relies on wrapper identity.
package jsdom

import (
	"syscall/js"

	"github.com/leapstack-labs/resload/pkg/dom"
)

const markerProp = "__resload"

// Document wraps a browser document.
type Document struct {
	v     js.Value
	funcs map[string][]listener
}

type listener struct {
	event string
	f     js.Func
}

// Global returns the window's document.
func Global() *Document {
	return Wrap(js.Global().Get("document"))
}

// Wrap returns a Document for a document value.
func Wrap(v js.Value) *Document {
	return &Document{v: v, funcs: make(map[string][]listener)}
}

// Scheduler defers work with setTimeout(fn, 0), the browser's next tick.
type Scheduler struct{}

// Defer implements resload.Scheduler.
func (Scheduler) Defer(fn func()) {
	var cb js.Func
	cb = js.FuncOf(func(js.Value, []js.Value) any {
		defer cb.Release()
		fn()
		return nil
	})
	js.Global().Call("setTimeout", cb, 0)
}

func (d *Document) element(v js.Value) dom.Element {
	if v.IsNull() || v.IsUndefined() {
		return nil
	}
	return &Element{doc: d, v: v}
}

// Head returns document.head.
func (d *Document) Head() dom.Element { return d.element(d.v.Get("head")) }

// Body returns document.body.
func (d *Document) Body() dom.Element { return d.element(d.v.Get("body")) }

// DocumentElement returns document.documentElement.
func (d *Document) DocumentElement() dom.Element {
	return d.element(d.v.Get("documentElement"))
}

// CreateElement calls document.createElement.
func (d *Document) CreateElement(tag string) dom.Element {
	return d.element(d.v.Call("createElement", tag))
}

// ElementByID calls document.getElementById.
func (d *Document) ElementByID(id string) dom.Element {
	if id == "" {
		return nil
	}
	return d.element(d.v.Call("getElementById", id))
}

// ElementsByTagClass filters getElementsByTagName by class.
func (d *Document) ElementsByTagClass(tag, class string) []dom.Element {
	list := d.v.Call("getElementsByTagName", tag)
	n := list.Get("length").Int()
	var out []dom.Element
	for i := 0; i < n; i++ {
		v := list.Index(i)
		if dom.HasClass(v.Get("className").String(), class) {
			out = append(out, d.element(v))
		}
	}
	return out
}

// IsolatedContext returns the document of a hidden iframe with the given
// id, creating it in the body on first use.
func (d *Document) IsolatedContext(id string) dom.Document {
	frame := d.v.Call("getElementById", id)
	if frame.IsNull() {
		frame = d.v.Call("createElement", "iframe")
		frame.Set("id", id)
		frame.Get("style").Set("display", "none")
		parent := d.v.Get("body")
		if parent.IsNull() || parent.IsUndefined() {
			parent = d.v.Get("documentElement")
		}
		parent.Call("appendChild", frame)
	}
	return Wrap(frame.Get("contentWindow").Get("document"))
}

// Supports reports engine features. External objects are supported when
// the global scope defines HTMLObjectElement.
func (d *Document) Supports(feature string) bool {
	if feature != dom.FeatureExternalObject {
		return false
	}
	ctor := js.Global().Get("HTMLObjectElement")
	return !ctor.IsUndefined() && !ctor.IsNull()
}

// Marker reads a marker stored on the node.
func (d *Document) Marker(el dom.Element, key string) (any, bool) {
	e, ok := el.(*Element)
	if !ok {
		return nil, false
	}
	bag := e.v.Get(markerProp)
	if bag.IsUndefined() {
		return nil, false
	}
	v := bag.Get(key)
	if v.IsUndefined() {
		return nil, false
	}
	if v.Type() == js.TypeBoolean {
		return v.Bool(), true
	}
	return v, true
}

// SetMarker stores a marker on the node.
func (d *Document) SetMarker(el dom.Element, key string, value any) {
	e, ok := el.(*Element)
	if !ok {
		return
	}
	bag := e.v.Get(markerProp)
	if bag.IsUndefined() {
		bag = js.Global().Get("Object").New()
		e.v.Set(markerProp, bag)
	}
	bag.Set(key, value)
}

// ForgetMarkers deletes the node's markers and releases its handlers.
func (d *Document) ForgetMarkers(el dom.Element) {
	e, ok := el.(*Element)
	if !ok {
		return
	}
	e.v.Delete(markerProp)
	d.release(e.v, e.ID())
}

func (d *Document) release(v js.Value, id string) {
	for _, l := range d.funcs[id] {
		v.Call("removeEventListener", l.event, l.f)
		l.f.Release()
	}
	delete(d.funcs, id)
}
