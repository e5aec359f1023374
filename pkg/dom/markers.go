package dom

import "sync"

// MarkerStore holds per-element metadata outside the element's visible
// attributes.
type MarkerStore interface {
	Marker(el Element, key string) (any, bool)
	SetMarker(el Element, key string, value any)
}

// MarkerForgetter is implemented by stores that can drop every marker held
// for an element.
type MarkerForgetter interface {
	ForgetMarkers(el Element)
}

// MapMarkers is a MarkerStore keyed by element identity. It works for any
// Document whose elements are comparable and stable (the same element is
// always returned as the same value).
type MapMarkers struct {
	mu      sync.Mutex
	markers map[Element]map[string]any
}

// NewMapMarkers returns an empty store.
func NewMapMarkers() *MapMarkers {
	return &MapMarkers{markers: make(map[Element]map[string]any)}
}

// Marker returns the value stored under key for el.
func (m *MapMarkers) Marker(el Element, key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.markers[el][key]
	return v, ok
}

// SetMarker stores value under key for el.
func (m *MapMarkers) SetMarker(el Element, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv, ok := m.markers[el]
	if !ok {
		kv = make(map[string]any)
		m.markers[el] = kv
	}
	kv[key] = value
}

// ForgetMarkers drops every marker held for el.
func (m *MapMarkers) ForgetMarkers(el Element) {
	m.mu.Lock()
	delete(m.markers, el)
	m.mu.Unlock()
}

// Len returns the number of elements with at least one marker.
func (m *MapMarkers) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.markers)
}
