// Package memdom is an in-memory dom.Document with a scriptable engine.
//
// Nothing is fetched. Connecting an element that carries a locator records a
// request; tests then decide when, and how, the engine signals completion
// with Finish, Fire and SetReadyState.
package memdom

import (
	"slices"

	"github.com/leapstack-labs/resload/pkg/dom"
)

// Option configures a Document.
type Option func(*Document)

// WithoutHead builds the document without a head element.
func WithoutHead() Option {
	return func(d *Document) { d.noHead = true }
}

// WithoutBody builds the document without a body element.
func WithoutBody() Option {
	return func(d *Document) { d.noBody = true }
}

// WithFeature sets a feature flag reported by Supports.
func WithFeature(name string, on bool) Option {
	return func(d *Document) { d.features[name] = on }
}

// WithSyncLoad makes the engine signal completion synchronously, inside the
// call that starts the request, the way engines behave on a cache hit.
func WithSyncLoad() Option {
	return func(d *Document) { d.syncLoad = true }
}

// WithDualSignal makes the engine dispatch a readystatechange to "loaded"
// in addition to the load event on every completion.
func WithDualSignal() Option {
	return func(d *Document) { d.dualSignal = true }
}

// Document is an in-memory document.
type Document struct {
	root *Element
	head *Element
	body *Element

	features   map[string]bool
	syncLoad   bool
	dualSignal bool
	noHead     bool
	noBody     bool
	opts       []Option

	frames   map[string]*Document
	requests []string
}

// New returns a document with html, head and body elements unless options
// remove them. External objects are supported by default.
func New(opts ...Option) *Document {
	d := &Document{
		features: map[string]bool{dom.FeatureExternalObject: true},
		frames:   make(map[string]*Document),
		opts:     opts,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.root = d.newElement("html")
	if !d.noHead {
		d.head = d.newElement("head")
		d.root.insert(d.head, false)
	}
	if !d.noBody {
		d.body = d.newElement("body")
		d.root.insert(d.body, false)
	}
	return d
}

// Head returns the head element, or nil.
func (d *Document) Head() dom.Element {
	if d.head == nil {
		return nil
	}
	return d.head
}

// Body returns the body element, or nil.
func (d *Document) Body() dom.Element {
	if d.body == nil {
		return nil
	}
	return d.body
}

// DocumentElement returns the html element.
func (d *Document) DocumentElement() dom.Element {
	return d.root
}

// CreateElement returns a detached element.
func (d *Document) CreateElement(tag string) dom.Element {
	return d.newElement(tag)
}

// ElementByID returns the first connected element with the id.
func (d *Document) ElementByID(id string) dom.Element {
	if id == "" {
		return nil
	}
	var found *Element
	d.root.walk(func(el *Element) bool {
		if el.attrs["id"] == id {
			found = el
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return found
}

// ElementsByTagClass returns connected elements matching tag and class.
func (d *Document) ElementsByTagClass(tag, class string) []dom.Element {
	var out []dom.Element
	d.root.walk(func(el *Element) bool {
		if el.tag == tag && dom.HasClass(el.attrs["class"], class) {
			out = append(out, el)
		}
		return true
	})
	return out
}

// IsolatedContext returns the frame document for id, attaching a hidden
// iframe element to the body (or the root) the first time. The frame inherits the
// document's options.
func (d *Document) IsolatedContext(id string) dom.Document {
	if f, ok := d.frames[id]; ok {
		return f
	}
	frame := d.newElement("iframe")
	frame.attrs["id"] = id
	frame.attrs["style"] = "display:none"
	if d.body != nil {
		d.body.insert(frame, false)
	} else {
		d.root.insert(frame, false)
	}

	f := New(d.opts...)
	d.frames[id] = f
	return f
}

// Supports reports a feature flag.
func (d *Document) Supports(feature string) bool {
	return d.features[feature]
}

// Frame returns the isolated context created for id, or nil.
func (d *Document) Frame(id string) *Document {
	return d.frames[id]
}

// Requests returns every URL the engine was asked to fetch, in order.
func (d *Document) Requests() []string {
	return slices.Clone(d.requests)
}

// RequestCount returns how many times url was requested.
func (d *Document) RequestCount(url string) int {
	n := 0
	for _, r := range d.requests {
		if r == url {
			n++
		}
	}
	return n
}

// Finish completes every connected, still-loading element whose locator is
// url and returns how many were signalled.
func (d *Document) Finish(url string) int {
	var targets []*Element
	d.root.walk(func(el *Element) bool {
		if el.loading && el.locator() == url {
			targets = append(targets, el)
		}
		return true
	})
	for _, el := range targets {
		d.complete(el)
	}
	return len(targets)
}

func (d *Document) newElement(tag string) *Element {
	return &Element{
		doc:      d,
		tag:      tag,
		attrs:    make(map[string]string),
		handlers: make(map[string][]func()),
	}
}

// request starts a fetch for a connected element with a locator.
func (d *Document) request(el *Element) {
	url := el.locator()
	if url == "" || !el.Connected() {
		return
	}
	d.requests = append(d.requests, url)
	el.loading = true
	el.readyState = "loading"
	if d.syncLoad {
		d.complete(el)
	}
}

func (d *Document) complete(el *Element) {
	el.loading = false
	if d.dualSignal {
		el.SetReadyState("loaded")
	} else {
		el.readyState = "complete"
	}
	el.Fire(dom.EventLoad)
}
