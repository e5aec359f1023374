package memdom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/resload/pkg/dom"
)

var _ dom.Document = (*Document)(nil)

func TestDocument_New(t *testing.T) {
	d := New()
	require.NotNil(t, d.Head())
	require.NotNil(t, d.Body())
	assert.Equal(t, "html", d.DocumentElement().Tag())
	assert.True(t, d.Supports(dom.FeatureExternalObject))

	bare := New(WithoutHead(), WithoutBody(), WithFeature(dom.FeatureExternalObject, false))
	assert.Nil(t, bare.Head())
	assert.Nil(t, bare.Body())
	assert.False(t, bare.Supports(dom.FeatureExternalObject))
}

func TestDocument_RequestsOnlyWhenConnected(t *testing.T) {
	d := New()

	el := d.CreateElement("script")
	el.SetAttr("src", "/a.js")
	assert.Empty(t, d.Requests(), "detached elements do not fetch")

	d.Head().Append(el)
	assert.Equal(t, []string{"/a.js"}, d.Requests())

	// changing the locator on a connected element fetches again
	el.SetAttr("src", "/b.js")
	assert.Equal(t, []string{"/a.js", "/b.js"}, d.Requests())
}

func TestDocument_Finish(t *testing.T) {
	d := New()

	el := d.CreateElement("link")
	loads := 0
	el.On(dom.EventLoad, func() { loads++ })
	el.SetAttr("href", "/x.css")
	d.Head().Append(el)

	assert.Equal(t, "loading", el.ReadyState())
	assert.Equal(t, 1, d.Finish("/x.css"))
	assert.Equal(t, 1, loads)
	assert.Equal(t, "complete", el.ReadyState())

	assert.Equal(t, 0, d.Finish("/x.css"), "finished elements are not signalled again")
}

func TestDocument_DualSignal(t *testing.T) {
	d := New(WithDualSignal())

	el := d.CreateElement("script")
	var events []string
	el.On(dom.EventReadyStateChange, func() { events = append(events, el.ReadyState()) })
	el.On(dom.EventLoad, func() { events = append(events, dom.EventLoad) })
	el.SetAttr("src", "/a.js")
	d.Body().Append(el)

	d.Finish("/a.js")
	assert.Equal(t, []string{"loaded", dom.EventLoad}, events)
}

func TestDocument_SyncLoad(t *testing.T) {
	d := New(WithSyncLoad())

	el := d.CreateElement("script")
	loads := 0
	el.On(dom.EventLoad, func() { loads++ })
	el.SetAttr("src", "/a.js")
	d.Head().Prepend(el)

	assert.Equal(t, 1, loads)
}

func TestDocument_Queries(t *testing.T) {
	d := New()

	a := d.CreateElement("script")
	a.SetAttr("id", "js-a")
	a.SetAttr("class", "main extra")
	b := d.CreateElement("script")
	b.SetAttr("id", "js-b")
	b.SetAttr("class", "other")
	c := d.CreateElement("link")
	c.SetAttr("class", "main")

	d.Head().Append(a)
	d.Head().Prepend(b)
	d.Head().Append(c)

	assert.Same(t, a, d.ElementByID("js-a"))
	assert.Nil(t, d.ElementByID("missing"))

	got := d.ElementsByTagClass("script", "main")
	require.Len(t, got, 1)
	assert.Same(t, a, got[0])

	head := d.Head().(*Element)
	assert.Equal(t, []*Element{b.(*Element), a.(*Element), c.(*Element)}, head.Children())

	a.Remove()
	assert.False(t, a.Connected())
	assert.Nil(t, d.ElementByID("js-a"))
	a.Remove()
}

func TestDocument_IsolatedContext(t *testing.T) {
	d := New(WithFeature(dom.FeatureExternalObject, false))

	f := d.IsolatedContext("frame")
	require.NotNil(t, f)
	assert.Same(t, f, d.IsolatedContext("frame"))
	assert.Same(t, f, d.Frame("frame"))
	assert.False(t, f.Supports(dom.FeatureExternalObject), "frames inherit options")

	iframe := d.ElementByID("frame")
	require.NotNil(t, iframe)
	assert.Same(t, d.Body(), dom.Element(iframe.(*Element).Parent()))
	style, _ := iframe.Attr("style")
	assert.Equal(t, "display:none", style)
}
