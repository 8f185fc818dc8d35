// Package assets handles uploaded files (product images, payment proofs)
// and maps them to public URLs.
package assets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Uploader stores a file and returns the public URL it will be served from.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// DiskUploader writes uploads to a local directory served as static files.
// Filenames are sanitized and prefixed with a unix timestamp so repeated
// uploads of the same file never collide.
type DiskUploader struct {
	dir     string
	baseURL string
	now     func() time.Time
}

var _ Uploader = (*DiskUploader)(nil)

// NewDiskUploader creates the upload directory if needed. baseURL is the
// public prefix the directory is served under, e.g. "/static/uploads".
func NewDiskUploader(dir, baseURL string) (*DiskUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create upload dir %s", dir)
	}
	return &DiskUploader{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}, nil
}

// Upload implements Uploader.
func (u *DiskUploader) Upload(_ context.Context, filename string, r io.Reader) (string, error) {
	name := fmt.Sprintf("%d_%s", u.now().Unix(), sanitizeFilename(filename))

	f, err := os.Create(filepath.Join(u.dir, name))
	if err != nil {
		return "", errors.Wrap(err, "create upload file")
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", errors.Wrap(err, "write upload")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "flush upload")
	}

	return u.baseURL + "/" + name, nil
}

// sanitizeFilename keeps only the base name and replaces anything outside
// [a-zA-Z0-9._-] so an uploaded name can never escape the upload dir.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 || sb.String() == "." || sb.String() == ".." {
		return "upload"
	}
	return sb.String()
}
