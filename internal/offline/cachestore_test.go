package offline

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *CacheStore {
	t.Helper()
	s, err := OpenCacheStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutMatchRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	entry := &Entry{
		URL:    "/static/css/style.css",
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"text/css"}},
		Body:   []byte("body { margin: 0 }"),
	}
	require.NoError(t, s.Put(ctx, "v1", entry))

	got, ok, err := s.Match(ctx, "v1", "/static/css/style.css")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, got.Status)
	assert.Equal(t, "text/css", got.Header.Get("Content-Type"))
	assert.Equal(t, entry.Body, got.Body)
	assert.False(t, got.FetchedAt.IsZero())
}

func TestMatchMissesAcrossPartitions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "v1", &Entry{URL: "/a", Status: 200, Header: http.Header{}, Body: []byte("x")}))

	_, ok, err := s.Match(ctx, "v2", "/a")
	require.NoError(t, err)
	assert.False(t, ok, "partitions are isolated")

	_, ok, err = s.Match(ctx, "v1", "/b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutOverwritesByURL(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "v1", &Entry{URL: "/a", Status: 200, Header: http.Header{}, Body: []byte("old")}))
	require.NoError(t, s.Put(ctx, "v1", &Entry{URL: "/a", Status: 200, Header: http.Header{}, Body: []byte("new")}))

	got, ok, err := s.Match(ctx, "v1", "/a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got.Body)

	n, err := s.Count(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPartitionsAndDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "git-done-v1", &Entry{URL: "/a", Status: 200, Header: http.Header{}, Body: []byte("a")}))
	require.NoError(t, s.Put(ctx, "git-done-v2", &Entry{URL: "/a", Status: 200, Header: http.Header{}, Body: []byte("a")}))
	require.NoError(t, s.Put(ctx, "git-done-v2", &Entry{URL: "/b", Status: 200, Header: http.Header{}, Body: []byte("b")}))

	names, err := s.Partitions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"git-done-v1", "git-done-v2"}, names)

	require.NoError(t, s.DeletePartition(ctx, "git-done-v1"))
	names, err = s.Partitions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"git-done-v2"}, names)

	n, err := s.Count(ctx, "git-done-v2")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "deleting one partition must not touch another")
}
