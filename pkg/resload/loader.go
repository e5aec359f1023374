package resload

import (
	"log/slog"

	"github.com/leapstack-labs/resload/internal/notifier"
	"github.com/leapstack-labs/resload/pkg/dom"
)

// PrefetchContextID is the id of the hidden context Prefetch fetches into.
const PrefetchContextID = "resload-prefetch"

const loadedMarker = "resload.loaded"

// Notifier is a topic-keyed callback registry. Publish runs every pending
// callback for the topic once, in registration order, then forgets them;
// Clear forgets them without running them.
type Notifier interface {
	Subscribe(topic string, fn func())
	Publish(topic string)
	Clear(topic string)
}

// Scheduler queues work for the next tick of the document's execution
// goroutine.
type Scheduler interface {
	Defer(fn func())
}

// Loader coordinates resource loading for one document.
type Loader struct {
	doc      dom.Document
	sched    Scheduler
	notifier Notifier
	markers  dom.MarkerStore
	hash     Hasher
	logger   *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithNotifier replaces the default in-process notifier.
func WithNotifier(n Notifier) Option {
	return func(l *Loader) { l.notifier = n }
}

// WithMarkers replaces the marker store.
func WithMarkers(m dom.MarkerStore) Option {
	return func(l *Loader) { l.markers = m }
}

// WithHasher replaces the URL hash used to derive identities.
func WithHasher(h Hasher) Option {
	return func(l *Loader) { l.hash = h }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New returns a Loader for doc. If doc implements dom.MarkerStore it is
// used as the marker store, otherwise markers are kept in memory.
func New(doc dom.Document, sched Scheduler, opts ...Option) *Loader {
	l := &Loader{
		doc:      doc,
		sched:    sched,
		notifier: notifier.New(),
		hash:     HashURL,
		logger:   slog.New(slog.DiscardHandler),
	}
	if ms, ok := doc.(dom.MarkerStore); ok {
		l.markers = ms
	} else {
		l.markers = dom.NewMapMarkers()
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Identity returns the derived key for (kind, url). ok is false for an
// unsupported kind.
func (l *Loader) Identity(kind Kind, url string) (id string, ok bool) {
	if !kind.Valid() {
		return "", false
	}
	return identity(kind, url, l.hash), true
}

// State reports where (kind, url) is in its lifecycle.
func (l *Loader) State(kind Kind, url string) State {
	id, ok := l.Identity(kind, url)
	if !ok {
		return Absent
	}
	el := l.doc.ElementByID(id)
	switch {
	case el == nil:
		return Absent
	case l.loaded(el):
		return Loaded
	default:
		return Loading
	}
}

// Load is LoadNamed without a name.
func (l *Loader) Load(kind Kind, url string, done func()) dom.Element {
	return l.LoadNamed(kind, url, "", done)
}

// LoadNamed loads url once and returns its element, or nil for an
// unsupported kind.
//
// If the resource is already loaded, done runs before LoadNamed returns.
// If it is loading, done is queued behind the callbacks already waiting.
// Otherwise a new element is inserted, and when it completes every element
// of the same kind that carried name before this call is removed and the
// queued callbacks run. done may be nil.
func (l *Loader) LoadNamed(kind Kind, url, name string, done func()) dom.Element {
	id, ok := l.Identity(kind, url)
	if !ok {
		return nil
	}

	if el := l.doc.ElementByID(id); el != nil {
		if l.loaded(el) {
			l.logger.Debug("resource already loaded", "id", id, "url", url)
			if done != nil {
				done()
			}
			return el
		}
		l.logger.Debug("resource loading, callback queued", "id", id, "url", url)
		l.subscribe(id, done)
		return el
	}

	var stale []dom.Element
	if name != "" {
		stale = l.doc.ElementsByTagClass(kind.tag(), name)
	}
	l.subscribe(id, done)

	l.logger.Debug("loading resource", "id", id, "url", url, "name", name, "superseding", len(stale))
	return insert(l.doc, l.sched, kind, url, id, name, func(el dom.Element) {
		l.complete(id, el, stale)
	})
}

// Unload removes the element for (kind, url), if any, and drops its pending
// callbacks. An in-flight transfer is not cancelled.
func (l *Loader) Unload(kind Kind, url string) {
	id, ok := l.Identity(kind, url)
	if !ok {
		return
	}
	if el := l.doc.ElementByID(id); el != nil {
		l.logger.Debug("unloading resource", "id", id, "url", url)
		l.remove([]dom.Element{el})
	}
}

// Ignore drops the pending callbacks for (kind, url) and leaves the element
// and its transfer alone.
func (l *Loader) Ignore(kind Kind, url string) {
	id, ok := l.Identity(kind, url)
	if !ok {
		return
	}
	l.logger.Debug("ignoring resource", "id", id, "url", url)
	l.notifier.Clear(id)
}

func (l *Loader) subscribe(id string, done func()) {
	if done != nil {
		l.notifier.Subscribe(id, done)
	}
}

// complete is the hook the element's completion signal lands on.
func (l *Loader) complete(id string, el dom.Element, stale []dom.Element) {
	if l.loaded(el) {
		l.logger.Debug("duplicate completion signal absorbed", "id", id)
		return
	}
	if !el.Connected() {
		// Unloaded while in flight. A newer element may own the topic now.
		l.logger.Debug("completion for detached element dropped", "id", id)
		return
	}
	l.markers.SetMarker(el, loadedMarker, true)
	l.remove(stale)
	l.logger.Debug("resource loaded", "id", id, "superseded", len(stale))
	l.notifier.Publish(id)
}

func (l *Loader) loaded(el dom.Element) bool {
	v, ok := l.markers.Marker(el, loadedMarker)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// remove clears each connected element's topic, then detaches it.
func (l *Loader) remove(els []dom.Element) {
	for _, el := range els {
		if !el.Connected() {
			continue
		}
		l.notifier.Clear(el.ID())
		el.Remove()
		if f, ok := l.markers.(dom.MarkerForgetter); ok {
			f.ForgetMarkers(el)
		}
	}
}
