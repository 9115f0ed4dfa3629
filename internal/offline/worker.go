package offline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/gitdone-app/gitdone-client/pkg/logger"
)

// CacheVersion is the current cache partition identifier. Shipping new
// asset versions means bumping this so Activate evicts the old partition
// instead of mutating it in place.
const CacheVersion = "git-done-v3"

// StaticAssets is the fixed install-time manifest: application shell,
// stylesheet, script bundle, logo, and the app manifest.
var StaticAssets = []string{
	"/",
	"/static/css/style.css",
	"/static/js/app.js",
	"/static/images/GD-Logo.png",
	"/manifest.json",
}

// Worker is the offline cache manager: it pre-caches the static asset
// manifest, evicts stale partitions, and proxies page requests to the
// origin with per-route cache strategies. It runs in its own process,
// sharing nothing with the page beyond this request protocol.
type Worker struct {
	version string
	origin  *url.URL
	cache   *CacheStore
	client  *http.Client
	assets  []string
}

// NewWorker builds a worker proxying to origin and caching under version.
// An empty version selects CacheVersion.
func NewWorker(origin string, version string, cache *CacheStore) (*Worker, error) {
	u, err := url.Parse(strings.TrimRight(origin, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid origin URL %q", origin)
	}
	if version == "" {
		version = CacheVersion
	}
	return &Worker{
		version: version,
		origin:  u,
		cache:   cache,
		client:  &http.Client{Timeout: 30 * time.Second},
		assets:  StaticAssets,
	}, nil
}

// Version returns the worker's cache partition identifier.
func (w *Worker) Version() string { return w.version }

// Install pre-fetches and caches every asset in the manifest. Assets are
// cached independently; one failure never aborts the rest or the worker.
func (w *Worker) Install(ctx context.Context) {
	logger.Log.WithField("version", w.version).Info("Worker installing")

	var failed int
	for _, asset := range w.assets {
		if err := w.cacheAsset(ctx, asset); err != nil {
			failed++
			logger.Log.WithField("asset", asset).WithError(err).Warn("Failed to cache asset")
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"version": w.version,
		"assets":  len(w.assets),
		"failed":  failed,
	}).Info("Worker installation complete")
}

// Activate deletes every cache partition that does not match the current
// version, then the worker serves all requests immediately.
func (w *Worker) Activate(ctx context.Context) error {
	names, err := w.cache.Partitions(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == w.version {
			continue
		}
		logger.Log.WithField("partition", name).Info("Deleting old cache partition")
		if err := w.cache.DeletePartition(ctx, name); err != nil {
			return err
		}
	}
	logger.Log.WithField("version", w.version).Info("Worker activated")
	return nil
}

// Router wires the fetch-interception policy. Order matters: scripts and
// stylesheets never touch the cache, the root document is network-first,
// everything else GET is cache-first, and non-GET traffic passes through.
func (w *Worker) Router() *mux.Router {
	r := mux.NewRouter()

	get := r.Methods(http.MethodGet).Subrouter()
	get.MatcherFunc(func(req *http.Request, _ *mux.RouteMatch) bool {
		ext := path.Ext(req.URL.Path)
		return ext == ".js" || ext == ".css"
	}).HandlerFunc(w.networkOnly)
	get.Path("/").HandlerFunc(w.networkFirst)
	get.Path("/index.html").HandlerFunc(w.networkFirst)
	get.PathPrefix("/").HandlerFunc(w.cacheFirst)

	// Non-GET requests are never cached or served from cache.
	r.PathPrefix("/").HandlerFunc(w.networkOnly)

	return r
}

// networkOnly forwards the request to the origin with no cache involved,
// so code updates are never masked by a stale copy.
func (w *Worker) networkOnly(rw http.ResponseWriter, req *http.Request) {
	resp, err := w.forward(req)
	if err != nil {
		logger.Log.WithField("url", req.URL.Path).WithError(err).Error("Fetch failed")
		http.Error(rw, "origin unreachable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	writeResponse(rw, resp.StatusCode, resp.Header, resp.Body)
}

// networkFirst tries the origin and falls back to the cached copy only
// when the network fails.
func (w *Worker) networkFirst(rw http.ResponseWriter, req *http.Request) {
	resp, err := w.forward(req)
	if err == nil {
		defer resp.Body.Close()
		body, readErr := io.ReadAll(resp.Body)
		if readErr == nil {
			w.maybeCache(req, resp.StatusCode, resp.Header, body)
			writeEntry(rw, resp.StatusCode, resp.Header, body, "miss")
			return
		}
		err = readErr
	}

	logger.Log.WithField("url", req.URL.Path).WithError(err).Warn("Network failed, trying cache")
	if entry, ok := w.match(req); ok {
		writeEntry(rw, entry.Status, entry.Header, entry.Body, "hit")
		return
	}
	http.Error(rw, "offline and not cached", http.StatusServiceUnavailable)
}

// cacheFirst serves from cache when possible. Misses go to the network;
// successful responses for static-asset paths and the root document are
// stored for next time. A failed navigation request falls back to the
// cached root document.
func (w *Worker) cacheFirst(rw http.ResponseWriter, req *http.Request) {
	if entry, ok := w.match(req); ok {
		logger.Log.WithField("url", req.URL.Path).Debug("Serving from cache")
		writeEntry(rw, entry.Status, entry.Header, entry.Body, "hit")
		return
	}

	resp, err := w.forward(req)
	if err == nil {
		defer resp.Body.Close()
		body, readErr := io.ReadAll(resp.Body)
		if readErr == nil {
			w.maybeCache(req, resp.StatusCode, resp.Header, body)
			writeEntry(rw, resp.StatusCode, resp.Header, body, "miss")
			return
		}
		err = readErr
	}

	logger.Log.WithField("url", req.URL.Path).WithError(err).Error("Fetch failed")

	// Navigation requests degrade to the cached application shell.
	if isNavigation(req) {
		if entry, ok, matchErr := w.cache.Match(req.Context(), w.version, "/"); matchErr == nil && ok {
			writeEntry(rw, entry.Status, entry.Header, entry.Body, "shell")
			return
		}
	}
	http.Error(rw, "origin unreachable", http.StatusBadGateway)
}

// forward replays the incoming request against the origin.
func (w *Worker) forward(req *http.Request) (*http.Response, error) {
	target := *req.URL
	target.Scheme = w.origin.Scheme
	target.Host = w.origin.Host

	out, err := http.NewRequestWithContext(req.Context(), req.Method, target.String(), req.Body)
	if err != nil {
		return nil, err
	}
	out.Header = req.Header.Clone()
	return w.client.Do(out)
}

// match looks the request up in the current partition; cache read errors
// are logged and treated as misses.
func (w *Worker) match(req *http.Request) (*Entry, bool) {
	entry, ok, err := w.cache.Match(req.Context(), w.version, cacheKey(req))
	if err != nil {
		logger.Log.WithField("url", req.URL.Path).WithError(err).Warn("Cache lookup failed")
		return nil, false
	}
	return entry, ok
}

// maybeCache stores a response clone when it is a successful origin
// response for a cacheable path. Write failures are swallowed; the
// response still reaches the caller.
func (w *Worker) maybeCache(req *http.Request, status int, header http.Header, body []byte) {
	if status != http.StatusOK {
		return
	}
	if !cacheablePath(req.URL.Path) {
		return
	}
	err := w.cache.Put(req.Context(), w.version, &Entry{
		URL:    cacheKey(req),
		Status: status,
		Header: header.Clone(),
		Body:   body,
	})
	if err != nil {
		logger.Log.WithField("url", req.URL.Path).WithError(err).Warn("Cache write failed")
	}
}

func (w *Worker) cacheAsset(ctx context.Context, asset string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.origin.String()+asset, nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("origin returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return w.cache.Put(ctx, w.version, &Entry{
		URL:    asset,
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	})
}

// cacheKey is the request URL path plus query, the lookup key within a
// partition.
func cacheKey(req *http.Request) string {
	if req.URL.RawQuery != "" {
		return req.URL.Path + "?" + req.URL.RawQuery
	}
	return req.URL.Path
}

// cacheablePath restricts runtime cache writes to static assets and the
// application shell.
func cacheablePath(p string) bool {
	return strings.HasPrefix(p, "/static/") || p == "/" || p == "/manifest.json"
}

// isNavigation approximates the browser's "destination: document" signal.
func isNavigation(req *http.Request) bool {
	if req.Header.Get("Sec-Fetch-Dest") == "document" {
		return true
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}

func writeEntry(rw http.ResponseWriter, status int, header http.Header, body []byte, cacheState string) {
	copyHeader(rw.Header(), header)
	rw.Header().Set("X-Cache", cacheState)
	rw.WriteHeader(status)
	rw.Write(body)
}

func writeResponse(rw http.ResponseWriter, status int, header http.Header, body io.Reader) {
	copyHeader(rw.Header(), header)
	rw.WriteHeader(status)
	if body != nil {
		io.Copy(rw, body)
	}
}

func copyHeader(dst, src http.Header) {
	for k, values := range src {
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}
