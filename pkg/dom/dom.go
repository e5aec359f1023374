// Package dom defines the narrow document contract the resource loader
// drives. Implementations live in the memdom, htmldom and jsdom
// subpackages.
package dom

// Event names delivered through Element.On.
const (
	EventLoad             = "load"
	EventReadyStateChange = "readystatechange"
)

// Feature names reported by Document.Supports.
const (
	// FeatureExternalObject reports whether an <object data=...> element
	// fetches its reference without executing it.
	FeatureExternalObject = "external-object"
)

// Element is a node in a live document.
type Element interface {
	// Tag returns the lower-case tag name.
	Tag() string

	// ID returns the id attribute, or "" if none is set.
	ID() string

	// Attr returns the value of an attribute and whether it is present.
	Attr(key string) (string, bool)

	// SetAttr sets an attribute, replacing any previous value. Setting a
	// locator attribute (src, href, data) on a connected element may start
	// a fetch.
	SetAttr(key, value string)

	// ReadyState returns the engine's readiness state for the element,
	// or "" if the engine does not track one.
	ReadyState() string

	// Connected reports whether the element is attached to its document.
	Connected() bool

	// Prepend inserts child as the first child of the element.
	Prepend(child Element)

	// Append inserts child as the last child of the element.
	Append(child Element)

	// Remove detaches the element from its parent. It is a no-op for a
	// detached element.
	Remove()

	// On registers fn to run each time the engine dispatches event on the
	// element. Handlers run on the document's execution goroutine.
	On(event string, fn func())
}

// Document is a live document.
type Document interface {
	// Head returns the head element, or nil.
	Head() Element

	// Body returns the body element, or nil.
	Body() Element

	// DocumentElement returns the root element.
	DocumentElement() Element

	// CreateElement returns a new detached element with the given tag.
	CreateElement(tag string) Element

	// ElementByID returns the connected element with the given id, or nil.
	ElementByID(id string) Element

	// ElementsByTagClass returns the connected elements with the given tag
	// whose class list contains class, in document order.
	ElementsByTagClass(tag, class string) []Element

	// IsolatedContext returns the document of the hidden browsing context
	// identified by id, creating the context on first use.
	IsolatedContext(id string) Document

	// Supports reports whether the engine behind the document has a
	// feature.
	Supports(feature string) bool
}
