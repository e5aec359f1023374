package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeElement struct {
	Element
	name string
}

func TestHasClass(t *testing.T) {
	tests := []struct {
		name  string
		list  string
		class string
		want  bool
	}{
		{name: "single", list: "main", class: "main", want: true},
		{name: "among many", list: "a  main\tb", class: "main", want: true},
		{name: "prefix only", list: "mainline", class: "main", want: false},
		{name: "empty class never matches", list: "main", class: "", want: false},
		{name: "empty list", list: "", class: "main", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasClass(tt.list, tt.class))
		})
	}
}

func TestMapMarkers(t *testing.T) {
	m := NewMapMarkers()
	a := &fakeElement{name: "a"}
	b := &fakeElement{name: "b"}

	_, ok := m.Marker(a, "loaded")
	assert.False(t, ok)

	m.SetMarker(a, "loaded", true)
	v, ok := m.Marker(a, "loaded")
	assert.True(t, ok)
	assert.Equal(t, true, v)

	_, ok = m.Marker(b, "loaded")
	assert.False(t, ok, "markers are per element")

	m.ForgetMarkers(a)
	_, ok = m.Marker(a, "loaded")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}
