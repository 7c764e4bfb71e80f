package datasets

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDownloadsAndSkips(t *testing.T) {
	payload := []byte("mnist bytes")
	digest := fmt.Sprintf("%x", sha256.Sum256(payload))

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	files := []File{{URL: srv.URL + "/f.bin", Name: "f.bin", SHA256: digest}}
	require.NoError(t, Fetch(context.Background(), dir, files))
	assert.Equal(t, int32(1), hits.Load())

	raw, err := os.ReadFile(filepath.Join(dir, "f.bin"))
	require.NoError(t, err)
	assert.Equal(t, payload, raw)

	// Cached with a good digest, so no second request.
	require.NoError(t, Fetch(context.Background(), dir, files))
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchRedownloadsCorrupted(t *testing.T) {
	payload := []byte("cifar bytes")
	digest := fmt.Sprintf("%x", sha256.Sum256(payload))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))

	require.NoError(t, Fetch(context.Background(), dir,
		[]File{{URL: srv.URL + "/f.bin", Name: "f.bin", SHA256: digest}}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, raw)
}

func TestFetchDigestMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not what was promised"))
	}))
	defer srv.Close()

	err := Fetch(context.Background(), t.TempDir(),
		[]File{{URL: srv.URL + "/f.bin", Name: "f.bin", SHA256: fmt.Sprintf("%064d", 0)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "digest mismatch")
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	err := Fetch(context.Background(), t.TempDir(),
		[]File{{URL: srv.URL + "/gone.bin", Name: "gone.bin", SHA256: fmt.Sprintf("%064d", 0)}})
	require.Error(t, err)
}

func TestFetchNoDigest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	err := Fetch(context.Background(), t.TempDir(), []File{{URL: srv.URL + "/f", Name: "f"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no digest")
}
