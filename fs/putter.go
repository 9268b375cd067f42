// Package fs stores monitored content on the local disk.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/httpmon"
)

// Scheme is the URL scheme handled by Putter.
const Scheme = "file"

// Ensure Putter implements httpmon.Putter at compile time.
var _ httpmon.Putter = (*Putter)(nil)

// Putter writes file:// destinations to disk. Each write replaces the
// file atomically so readers never observe a partial payload.
type Putter struct {
	baseDir string
}

// NewPutter creates a Putter that resolves destination paths under
// baseDir. An empty baseDir uses the paths as given.
func NewPutter(baseDir string) *Putter {
	return &Putter{baseDir: baseDir}
}

// URLToPath converts a file:// destination to a relative or absolute path.
// Example: file:///var/data/a.bin → /var/data/a.bin
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", httpmon.Errorf(httpmon.EINVALID, "invalid destination %q: %v", rawURL, err)
	}
	if u.Scheme != Scheme {
		return "", httpmon.Errorf(httpmon.EINVALID, "destination %q is not a file URL", rawURL)
	}

	// file://relative/path puts the first segment in the host.
	path := u.Path
	if u.Host != "" && u.Host != "localhost" {
		path = u.Host + path
	}
	if path == "" || strings.HasSuffix(path, "/") {
		return "", httpmon.Errorf(httpmon.EINVALID, "destination %q names a directory", rawURL)
	}
	return filepath.FromSlash(path), nil
}

// Put writes req.Body to the file named by req.URL, creating parent
// directories as needed. It returns 201 for a new file and 204 for a
// replaced one.
func (p *Putter) Put(ctx context.Context, req httpmon.PutRequest) (int, error) {
	path, err := URLToPath(req.URL)
	if err != nil {
		return 0, err
	}
	if p.baseDir != "" {
		path = filepath.Join(p.baseDir, path)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	status := http.StatusNoContent
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		status = http.StatusCreated
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(req.Body); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return 0, fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("rename into %s: %w", path, err)
	}
	return status, nil
}
