package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/resload/internal/testutil"
)

func newCountingServer(t *testing.T, release <-chan struct{}) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if release != nil {
			<-release
		}
		switch r.URL.Path {
		case "/a.js":
			_, _ = w.Write([]byte("console.log('a')"))
		case "/x.css":
			_, _ = w.Write([]byte("body{color:red}"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestClient_Fetch_Caches(t *testing.T) {
	srv, hits := newCountingServer(t, nil)

	c, err := New(WithBaseURL(srv.URL+"/"), WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)

	body, err := c.Fetch(context.Background(), "a.js")
	require.NoError(t, err)
	assert.Equal(t, "console.log('a')", string(body))

	body, err = c.Fetch(context.Background(), "/a.js")
	require.NoError(t, err)
	assert.Equal(t, "console.log('a')", string(body))

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 1, c.Requests("a.js"))
	assert.Equal(t, Stats{Requests: 1, CacheHits: 1, Bytes: int64(len(body))}, c.Stats())
}

func TestClient_Fetch_CollapsesConcurrentRequests(t *testing.T) {
	release := make(chan struct{})
	srv, hits := newCountingServer(t, release)

	c, err := New(WithBaseURL(srv.URL))
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Fetch(context.Background(), "/x.css")
			errs <- err
		}()
	}
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_Fetch_StatusError(t *testing.T) {
	srv, hits := newCountingServer(t, nil)

	c, err := New(WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "/missing.js")
	require.ErrorIs(t, err, ErrStatus)

	// failures are not cached and not retried behind the caller's back
	_, err = c.Fetch(context.Background(), "/missing.js")
	require.ErrorIs(t, err, ErrStatus)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 0, c.Stats().CacheHits)
}

func TestClient_Fetch_Root(t *testing.T) {
	dir := testutil.WriteAssets(t, map[string]string{
		"js/app.js": "var app = 1;",
	})

	c, err := New(WithRoot(dir))
	require.NoError(t, err)

	body, err := c.Fetch(context.Background(), "js/app.js")
	require.NoError(t, err)
	assert.Equal(t, "var app = 1;", string(body))

	_, err = c.Fetch(context.Background(), "js/missing.js")
	assert.ErrorIs(t, err, ErrStatus)
}

func TestClient_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		ref     string
		want    string
		wantErr bool
	}{
		{name: "relative", base: "http://cdn.test/assets/", ref: "a.js", want: "http://cdn.test/assets/a.js"},
		{name: "rooted", base: "http://cdn.test/assets/", ref: "/a.js", want: "http://cdn.test/a.js"},
		{name: "absolute wins", base: "http://cdn.test/", ref: "https://other.test/x.css", want: "https://other.test/x.css"},
		{name: "absolute without base", ref: "https://other.test/x.css", want: "https://other.test/x.css"},
		{name: "relative without base", ref: "a.js", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.base != "" {
				opts = append(opts, WithBaseURL(tt.base))
			}
			c, err := New(opts...)
			require.NoError(t, err)

			got, err := c.Resolve(tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_InvalidBase(t *testing.T) {
	_, err := New(WithBaseURL("http://[::1"))
	assert.Error(t, err)
}
