//go:build js && wasm

package jsdom

import (
	"syscall/js"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/resload/pkg/dom"
)

func browserDocument(t *testing.T) *Document {
	t.Helper()
	v := js.Global().Get("document")
	if v.IsUndefined() || v.IsNull() {
		t.Skip("no browser document")
	}
	return Wrap(v)
}

func TestElement_On_ReleasesListenersAfterLoad(t *testing.T) {
	doc := browserDocument(t)
	el := doc.CreateElement("script")
	el.SetAttr("id", "js-released")

	var loads int
	el.On(dom.EventLoad, func() { loads++ })
	el.On(dom.EventReadyStateChange, func() {})
	require.Len(t, doc.funcs["js-released"], 2)

	v := el.(*Element).Value()
	v.Call("dispatchEvent", js.Global().Get("Event").New("load"))
	assert.Equal(t, 1, loads)

	require.Eventually(t, func() bool {
		return len(doc.funcs["js-released"]) == 0
	}, time.Second, 5*time.Millisecond)

	v.Call("dispatchEvent", js.Global().Get("Event").New("load"))
	assert.Equal(t, 1, loads, "released listener must be detached")
}

func TestDocument_ForgetMarkers_ReleasesListeners(t *testing.T) {
	doc := browserDocument(t)
	el := doc.CreateElement("link")
	el.SetAttr("id", "css-forgotten")
	el.On(dom.EventLoad, func() {})
	doc.SetMarker(el, "loaded", true)

	doc.ForgetMarkers(el)

	assert.Empty(t, doc.funcs["css-forgotten"])
	_, ok := doc.Marker(el, "loaded")
	assert.False(t, ok)
}
