// Package htmldom is a headless dom.Document over golang.org/x/net/html
// node trees.
//
// Connecting an element that carries a locator (script src, link href,
// object data) starts a real transfer through the Fetcher on its own
// goroutine. The outcome is posted back through the Scheduler: success
// dispatches the element's load event, failure is logged and never
// signals. All other methods must be called on the goroutine that drains
// the Scheduler.
package htmldom

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/leapstack-labs/resload/pkg/dom"
)

// Fetcher retrieves the body behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Scheduler queues work for the document's execution goroutine.
type Scheduler interface {
	Defer(fn func())
}

// Transfer records the outcome of one fetch started by the document or
// one of its isolated contexts.
type Transfer struct {
	URL     string
	Context string // isolated context id, "" for the main document
	Bytes   int
	Err     error
}

// Option configures a Document.
type Option func(*engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *engine) { e.logger = logger }
}

// WithFeature sets a feature flag reported by Supports.
func WithFeature(name string, on bool) Option {
	return func(e *engine) { e.features[name] = on }
}

// engine is the state shared by a document and its isolated contexts.
type engine struct {
	ctx       context.Context
	fetcher   Fetcher
	sched     Scheduler
	logger    *slog.Logger
	features  map[string]bool
	inflight  int
	transfers []Transfer
}

// Document is a parsed HTML document.
type Document struct {
	eng      *engine
	frameID  string
	root     *html.Node
	elements map[*html.Node]*Element
	frames   map[string]*Document
}

// Parse reads an HTML document. Transfers started by the document use ctx.
func Parse(ctx context.Context, r io.Reader, sched Scheduler, fetcher Fetcher, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	eng := &engine{
		ctx:      ctx,
		fetcher:  fetcher,
		sched:    sched,
		logger:   slog.New(slog.DiscardHandler),
		features: map[string]bool{dom.FeatureExternalObject: true},
	}
	for _, opt := range opts {
		opt(eng)
	}
	return newDocument(eng, "", root), nil
}

// New returns an empty document (html, head and body only).
func New(ctx context.Context, sched Scheduler, fetcher Fetcher, opts ...Option) *Document {
	d, err := Parse(ctx, strings.NewReader(""), sched, fetcher, opts...)
	if err != nil {
		// The parser does not fail on an empty string.
		panic(err)
	}
	return d
}

func newDocument(eng *engine, frameID string, root *html.Node) *Document {
	return &Document{
		eng:      eng,
		frameID:  frameID,
		root:     root,
		elements: make(map[*html.Node]*Element),
		frames:   make(map[string]*Document),
	}
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, returning "" on error.
func (d *Document) String() string {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return ""
	}
	return b.String()
}

// Inflight returns the number of transfers that have not reported back,
// across the document and its isolated contexts.
func (d *Document) Inflight() int {
	return d.eng.inflight
}

// Transfers returns every finished transfer in completion order.
func (d *Document) Transfers() []Transfer {
	return append([]Transfer(nil), d.eng.transfers...)
}

// Head returns the head element, or nil.
func (d *Document) Head() dom.Element {
	return d.find(d.htmlNode(), atom.Head)
}

// Body returns the body element, or nil.
func (d *Document) Body() dom.Element {
	return d.find(d.htmlNode(), atom.Body)
}

// DocumentElement returns the html element.
func (d *Document) DocumentElement() dom.Element {
	if n := d.htmlNode(); n != nil {
		return d.wrap(n)
	}
	return nil
}

// CreateElement returns a detached element.
func (d *Document) CreateElement(tag string) dom.Element {
	tag = strings.ToLower(tag)
	return d.wrap(&html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	})
}

// ElementByID returns the first element with the id.
func (d *Document) ElementByID(id string) dom.Element {
	if id == "" {
		return nil
	}
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return d.wrap(found)
}

// ElementsByTagClass returns the elements matching tag and class.
func (d *Document) ElementsByTagClass(tag, class string) []dom.Element {
	var out []dom.Element
	walk(d.root, func(n *html.Node) bool {
		if n.Data == tag && dom.HasClass(attr(n, "class"), class) {
			out = append(out, d.wrap(n))
		}
		return true
	})
	return out
}

// IsolatedContext returns the document of a hidden iframe, attaching the
// iframe to the body the first time. Its content is not part of Render.
func (d *Document) IsolatedContext(id string) dom.Document {
	if f, ok := d.frames[id]; ok {
		return f
	}
	frame := d.CreateElement("iframe")
	frame.SetAttr("id", id)
	frame.SetAttr("style", "display:none")
	if body := d.Body(); body != nil {
		body.Append(frame)
	} else {
		d.DocumentElement().Append(frame)
	}

	root, _ := html.Parse(strings.NewReader(""))
	f := newDocument(d.eng, id, root)
	d.frames[id] = f
	return f
}

// Supports reports a feature flag.
func (d *Document) Supports(feature string) bool {
	return d.eng.features[feature]
}

// Marker implements dom.MarkerStore.
func (d *Document) Marker(el dom.Element, key string) (any, bool) {
	e, ok := el.(*Element)
	if !ok {
		return nil, false
	}
	v, ok := e.markers[key]
	return v, ok
}

// SetMarker implements dom.MarkerStore.
func (d *Document) SetMarker(el dom.Element, key string, value any) {
	if e, ok := el.(*Element); ok {
		if e.markers == nil {
			e.markers = make(map[string]any)
		}
		e.markers[key] = value
	}
}

// ForgetMarkers implements dom.MarkerForgetter.
func (d *Document) ForgetMarkers(el dom.Element) {
	if e, ok := el.(*Element); ok {
		e.markers = nil
	}
}

func (d *Document) htmlNode() *html.Node {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Html {
			return c
		}
	}
	return nil
}

func (d *Document) find(parent *html.Node, a atom.Atom) dom.Element {
	if parent == nil {
		return nil
	}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return d.wrap(c)
		}
	}
	return nil
}

// wrap returns the one Element for n.
func (d *Document) wrap(n *html.Node) *Element {
	if el, ok := d.elements[n]; ok {
		return el
	}
	el := &Element{doc: d, node: n, handlers: make(map[string][]func())}
	d.elements[n] = el
	return el
}

// request starts a transfer for a connected element with a locator it has
// not requested before.
func (d *Document) request(el *Element) {
	url := el.locator()
	if url == "" || url == el.requested || !el.Connected() {
		return
	}
	eng := d.eng
	eng.inflight++
	el.requested = url
	el.readyState = "loading"
	eng.logger.Debug("transfer started", "url", url, "context", d.frameID)

	go func() {
		body, err := eng.fetcher.Fetch(eng.ctx, url)
		eng.sched.Defer(func() {
			eng.inflight--
			eng.transfers = append(eng.transfers, Transfer{URL: url, Context: d.frameID, Bytes: len(body), Err: err})
			if err != nil {
				// Failed loads never signal completion.
				eng.logger.Warn("transfer failed", "url", url, "error", err)
				return
			}
			el.readyState = "complete"
			el.fire(dom.EventLoad)
		})
	}()
}

// walk visits element nodes under n in document order until fn returns
// false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if n.Type == html.ElementNode && !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}
