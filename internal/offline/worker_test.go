package offline

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testOrigin is a fake Git-Done origin serving the static manifest.
type testOrigin struct {
	srv  *httptest.Server
	mu   sync.Mutex
	hits map[string]*atomic.Int64
	down atomic.Bool
}

func newTestOrigin(t *testing.T) *testOrigin {
	t.Helper()
	o := &testOrigin{hits: map[string]*atomic.Int64{}}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o.hit(r.URL.Path).Add(1)
		if o.down.Load() {
			// Simulate total network failure by hijacking and dropping.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		switch r.URL.Path {
		case "/", "/index.html":
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, "<html>shell</html>")
		case "/static/css/style.css":
			w.Header().Set("Content-Type", "text/css")
			io.WriteString(w, "body{}")
		case "/static/js/app.js":
			w.Header().Set("Content-Type", "application/javascript")
			io.WriteString(w, "console.log('app')")
		case "/static/images/GD-Logo.png":
			io.WriteString(w, "png-bytes")
		case "/manifest.json":
			io.WriteString(w, `{"name":"Git-Done"}`)
		case "/api/goals":
			io.WriteString(w, `[]`)
		default:
			http.NotFound(w, r)
		}
	})

	o.srv = httptest.NewServer(handler)
	t.Cleanup(o.srv.Close)
	return o
}

func (o *testOrigin) hit(path string) *atomic.Int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.hits[path]; !ok {
		o.hits[path] = &atomic.Int64{}
	}
	return o.hits[path]
}

func newTestWorker(t *testing.T, origin *testOrigin) (*Worker, *httptest.Server) {
	t.Helper()
	cache := testStore(t)
	w, err := NewWorker(origin.srv.URL, "git-done-test", cache)
	require.NoError(t, err)
	proxy := httptest.NewServer(w.Router())
	t.Cleanup(proxy.Close)
	return w, proxy
}

func get(t *testing.T, base, path string, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, base+path, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestInstallCachesManifest(t *testing.T) {
	origin := newTestOrigin(t)
	w, _ := newTestWorker(t, origin)

	w.Install(context.Background())

	n, err := w.cache.Count(context.Background(), "git-done-test")
	require.NoError(t, err)
	assert.Equal(t, len(StaticAssets), n)
}

func TestInstallToleratesPartialFailure(t *testing.T) {
	origin := newTestOrigin(t)
	cache := testStore(t)
	w, err := NewWorker(origin.srv.URL, "git-done-test", cache)
	require.NoError(t, err)
	w.assets = append([]string{"/static/images/missing.png"}, StaticAssets...)

	w.Install(context.Background()) // must not panic or abort

	n, err := cache.Count(context.Background(), "git-done-test")
	require.NoError(t, err)
	assert.Equal(t, len(StaticAssets), n, "the missing asset is skipped, the rest are cached")
}

func TestActivateEvictsStalePartitions(t *testing.T) {
	origin := newTestOrigin(t)
	cache := testStore(t)
	ctx := context.Background()

	// Leftovers from two older code versions.
	require.NoError(t, cache.Put(ctx, "git-done-v1", &Entry{URL: "/", Status: 200, Header: http.Header{}, Body: []byte("old")}))
	require.NoError(t, cache.Put(ctx, "git-done-v2", &Entry{URL: "/", Status: 200, Header: http.Header{}, Body: []byte("old")}))

	w, err := NewWorker(origin.srv.URL, "git-done-v3", cache)
	require.NoError(t, err)
	w.Install(ctx)
	require.NoError(t, w.Activate(ctx))

	names, err := cache.Partitions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"git-done-v3"}, names, "exactly one partition remains after activation")
}

func TestScriptRequestsAlwaysBypassCache(t *testing.T) {
	origin := newTestOrigin(t)
	w, proxy := newTestWorker(t, origin)
	w.Install(context.Background()) // app.js is now cached

	for i := 0; i < 2; i++ {
		resp := get(t, proxy.URL, "/static/js/app.js", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("X-Cache"), "scripts never come from cache")
	}
	// One install fetch plus two proxied fetches.
	assert.Equal(t, int64(3), origin.hit("/static/js/app.js").Load())
}

func TestRootDocumentIsNetworkFirst(t *testing.T) {
	origin := newTestOrigin(t)
	w, proxy := newTestWorker(t, origin)
	w.Install(context.Background())

	resp := get(t, proxy.URL, "/", nil)
	assert.Equal(t, "miss", resp.Header.Get("X-Cache"), "network is attempted first while online")

	origin.down.Store(true)
	resp = get(t, proxy.URL, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hit", resp.Header.Get("X-Cache"), "cache serves the shell when the network fails")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "shell")
}

func TestStaticAssetIsCacheFirst(t *testing.T) {
	origin := newTestOrigin(t)
	w, proxy := newTestWorker(t, origin)
	w.Install(context.Background())
	installHits := origin.hit("/static/images/GD-Logo.png").Load()

	resp := get(t, proxy.URL, "/static/images/GD-Logo.png", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hit", resp.Header.Get("X-Cache"))
	assert.Equal(t, installHits, origin.hit("/static/images/GD-Logo.png").Load(),
		"a cache hit must not touch the network")
}

func TestCacheMissFetchesAndStoresStaticAsset(t *testing.T) {
	origin := newTestOrigin(t)
	_, proxy := newTestWorker(t, origin)

	// Not installed; first request is a miss that populates the cache.
	resp := get(t, proxy.URL, "/static/css/style.css", nil)
	assert.Equal(t, "miss", resp.Header.Get("X-Cache"))

	resp = get(t, proxy.URL, "/static/css/style.css", nil)
	assert.Equal(t, "hit", resp.Header.Get("X-Cache"))
	assert.Equal(t, int64(1), origin.hit("/static/css/style.css").Load())
}

func TestUncacheablePathIsNotStored(t *testing.T) {
	origin := newTestOrigin(t)
	w, proxy := newTestWorker(t, origin)

	resp := get(t, proxy.URL, "/api/goals", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, ok, err := w.cache.Match(context.Background(), "git-done-test", "/api/goals")
	require.NoError(t, err)
	assert.False(t, ok, "API responses are never cached")
}

func TestNavigationFallsBackToCachedShell(t *testing.T) {
	origin := newTestOrigin(t)
	w, proxy := newTestWorker(t, origin)
	w.Install(context.Background())
	origin.down.Store(true)

	resp := get(t, proxy.URL, "/some/uncached/page", map[string]string{"Accept": "text/html"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "shell")

	// A non-navigation request gets an error instead of the shell.
	resp = get(t, proxy.URL, "/some/uncached/data", map[string]string{"Accept": "application/json"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestNonGETPassesThroughUncached(t *testing.T) {
	origin := newTestOrigin(t)
	w, proxy := newTestWorker(t, origin)

	resp, err := http.Post(proxy.URL+"/api/goals", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), origin.hit("/api/goals").Load())

	_, ok, err := w.cache.Match(context.Background(), "git-done-test", "/api/goals")
	require.NoError(t, err)
	assert.False(t, ok)
}
