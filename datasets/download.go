package datasets

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// File describes one downloadable dataset file with its expected digest.
// Exactly one of SHA256 or MD5 is set, hex-encoded.
type File struct {
	URL    string
	Name   string
	SHA256 string
	MD5    string
}

// Fetch downloads into dir every file that is not already cached there with a
// matching digest. Downloads run concurrently and any failure aborts the rest.
func Fetch(ctx context.Context, dir string, files []File) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "creating dataset directory %q", dir)
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		f := f
		g.Go(func() error { return fetchOne(ctx, dir, f) })
	}
	return g.Wait()
}

func fetchOne(ctx context.Context, dir string, f File) error {
	path := filepath.Join(dir, f.Name)
	if ok, err := verify(path, f); err == nil && ok {
		return nil
	}
	klog.Infof("Downloading %s", f.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return errors.Wrapf(err, "building request for %q", f.URL)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "downloading %q", f.URL)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("downloading %q: %s", f.URL, resp.Status)
	}

	tmp, err := os.CreateTemp(dir, f.Name+".download-*")
	if err != nil {
		return errors.Wrapf(err, "creating temporary file in %q", dir)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "writing %q", f.Name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %q", f.Name)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "renaming %q into place", f.Name)
	}

	ok, err := verify(path, f)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("digest mismatch for %q after download", path)
	}
	return nil
}

// verify reports whether path exists and hashes to the file's digest.
func verify(path string, f File) (bool, error) {
	var h hash.Hash
	var want string
	switch {
	case f.SHA256 != "":
		h, want = sha256.New(), f.SHA256
	case f.MD5 != "":
		h, want = md5.New(), f.MD5
	default:
		return false, errors.Errorf("file %q has no digest to verify", f.Name)
	}
	r, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "opening %q", path)
	}
	defer r.Close()
	if _, err := io.Copy(h, r); err != nil {
		return false, errors.Wrapf(err, "hashing %q", path)
	}
	return fmt.Sprintf("%x", h.Sum(nil)) == want, nil
}
