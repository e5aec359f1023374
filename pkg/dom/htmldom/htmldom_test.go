package htmldom_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/resload/internal/eventloop"
	"github.com/leapstack-labs/resload/internal/fetch"
	"github.com/leapstack-labs/resload/internal/testutil"
	"github.com/leapstack-labs/resload/pkg/dom"
	"github.com/leapstack-labs/resload/pkg/dom/htmldom"
	"github.com/leapstack-labs/resload/pkg/resload"
)

var (
	_ dom.Document        = (*htmldom.Document)(nil)
	_ dom.MarkerStore     = (*htmldom.Document)(nil)
	_ dom.MarkerForgetter = (*htmldom.Document)(nil)
)

const page = `<!DOCTYPE html><html><head><title>t</title></head><body><p>hi</p></body></html>`

type harness struct {
	loop *eventloop.Loop
	doc  *htmldom.Document
	l    *resload.Loader
	hits *atomic.Int32
}

func newHarness(t *testing.T, opts ...htmldom.Option) *harness {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if strings.HasPrefix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("/* " + r.URL.Path + " */"))
	}))
	t.Cleanup(srv.Close)

	logger := testutil.NewTestLogger(t)
	client, err := fetch.New(fetch.WithBaseURL(srv.URL), fetch.WithLogger(logger))
	require.NoError(t, err)

	loop := eventloop.New(logger)
	opts = append(opts, htmldom.WithLogger(logger))
	doc, err := htmldom.Parse(context.Background(), strings.NewReader(page), loop, client, opts...)
	require.NoError(t, err)

	return &harness{
		loop: loop,
		doc:  doc,
		l:    resload.New(doc, loop, resload.WithLogger(logger)),
		hits: &hits,
	}
}

// settle runs the loop until every transfer reported back.
func (h *harness) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := h.loop.RunUntil(ctx, func() bool {
		return h.doc.Inflight() == 0 && h.loop.Len() == 0
	})
	require.NoError(t, err)
}

func TestDocument_Structure(t *testing.T) {
	h := newHarness(t)

	require.NotNil(t, h.doc.Head())
	require.NotNil(t, h.doc.Body())
	assert.Equal(t, "head", h.doc.Head().Tag())
	assert.Equal(t, "html", h.doc.DocumentElement().Tag())
	assert.Same(t, h.doc.Head(), h.doc.Head(), "elements are stable")
	assert.True(t, h.doc.Supports(dom.FeatureExternalObject))
}

func TestDocument_LoadAndRender(t *testing.T) {
	h := newHarness(t)

	var order []string
	h.l.Load(resload.Style, "/site.css", func() { order = append(order, "css") })
	h.l.LoadNamed(resload.Script, "/app.js", "app", func() { order = append(order, "js") })
	h.l.Load(resload.Script, "/app.js", func() { order = append(order, "js again") })

	h.settle(t)
	assert.ElementsMatch(t, []string{"css", "js", "js again"}, order)
	assert.Equal(t, resload.Loaded, h.l.State(resload.Script, "/app.js"))
	assert.Equal(t, int32(2), h.hits.Load())

	out := h.doc.String()
	jsID, _ := h.l.Identity(resload.Script, "/app.js")
	cssID, _ := h.l.Identity(resload.Style, "/site.css")
	assert.Contains(t, out, `<script id="`+jsID+`" class="app" src="/app.js"></script><title>t</title>`)
	assert.Contains(t, out, `<link rel="stylesheet" type="text/css" id="`+cssID+`" href="/site.css"/></head>`)
	assert.Len(t, h.doc.Transfers(), 2)
}

func TestDocument_FailedTransferNeverCompletes(t *testing.T) {
	h := newHarness(t)

	called := false
	h.l.Load(resload.Script, "/missing.js", func() { called = true })
	h.settle(t)

	assert.False(t, called)
	assert.Equal(t, resload.Loading, h.l.State(resload.Script, "/missing.js"))

	transfers := h.doc.Transfers()
	require.Len(t, transfers, 1)
	assert.ErrorIs(t, transfers[0].Err, fetch.ErrStatus)

	// the caller recovers by unloading and retrying
	h.l.Unload(resload.Script, "/missing.js")
	assert.Equal(t, resload.Absent, h.l.State(resload.Script, "/missing.js"))
}

func TestDocument_ReparentDoesNotRefetch(t *testing.T) {
	h := newHarness(t)

	calls := 0
	el := h.l.Load(resload.Script, "/app.js", func() { calls++ })
	require.NotNil(t, el)
	loads := 0
	el.On(dom.EventLoad, func() { loads++ })
	h.settle(t)
	require.Equal(t, 1, loads)

	el.Remove()
	h.doc.Body().Append(el)
	assert.True(t, el.Connected())
	h.settle(t)

	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, calls)
	assert.Equal(t, int32(1), h.hits.Load())
	assert.Len(t, h.doc.Transfers(), 1)
	assert.Equal(t, "complete", el.ReadyState())
	assert.Equal(t, resload.Loaded, h.l.State(resload.Script, "/app.js"))
}

func TestDocument_NamedSwap(t *testing.T) {
	h := newHarness(t)

	h.l.LoadNamed(resload.Style, "/v1.css", "theme", nil)
	h.settle(t)

	ran := 0
	h.l.LoadNamed(resload.Style, "/v2.css", "theme", func() { ran++ })
	h.settle(t)

	assert.Equal(t, 1, ran)
	assert.NotContains(t, h.doc.String(), "/v1.css")
	assert.Contains(t, h.doc.String(), "/v2.css")
}

func TestDocument_Prefetch(t *testing.T) {
	h := newHarness(t)

	h.l.Prefetch(resload.Script, "/later.js")
	h.l.Prefetch(resload.Style, "/later.css")
	h.settle(t)

	out := h.doc.String()
	assert.Contains(t, out, `<iframe id="`+resload.PrefetchContextID+`" style="display:none"></iframe>`)
	assert.NotContains(t, out, "/later.js", "prefetched resources stay out of the main document")

	transfers := h.doc.Transfers()
	require.Len(t, transfers, 2)
	for _, tr := range transfers {
		assert.Equal(t, resload.PrefetchContextID, tr.Context)
	}

	// the later load reuses the cached bytes
	done := false
	h.l.Load(resload.Script, "/later.js", func() { done = true })
	h.settle(t)
	assert.True(t, done)
	assert.Equal(t, int32(2), h.hits.Load())
}

func TestDocument_PrefetchWithoutExternalObjects(t *testing.T) {
	h := newHarness(t, htmldom.WithFeature(dom.FeatureExternalObject, false))

	h.l.Prefetch(resload.Script, "/later.js")
	h.settle(t)

	frame := h.doc.IsolatedContext(resload.PrefetchContextID)
	id, _ := h.l.Identity(resload.Script, "/later.js")
	el := frame.ElementByID(id)
	require.NotNil(t, el)
	typ, _ := el.Attr("type")
	assert.Equal(t, "text/cache", typ)
}

func TestDocument_Markers(t *testing.T) {
	h := newHarness(t)

	el := h.doc.CreateElement("script")
	_, ok := h.doc.Marker(el, "k")
	assert.False(t, ok)

	h.doc.SetMarker(el, "k", 1)
	v, ok := h.doc.Marker(el, "k")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	h.doc.ForgetMarkers(el)
	_, ok = h.doc.Marker(el, "k")
	assert.False(t, ok)
}
