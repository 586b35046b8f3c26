// Package fsys answers the filesystem questions LOAD DATA needs: whether a
// path exists, whether it is a directory and which entries it contains.
package fsys

import (
	"context"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// Entry is one child of a listed directory.
type Entry struct {
	Name  string
	URL   string
	IsDir bool
}

// FileSystem is the storage contract consulted by the analyzer.
type FileSystem interface {
	Exists(ctx context.Context, URL string) (bool, error)
	IsDirectory(ctx context.Context, URL string) (bool, error)
	List(ctx context.Context, URL string) ([]Entry, error)
}

// IsHiddenName reports whether a file name is hidden from loads: names that
// start with a dot or an underscore.
func IsHiddenName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// Scheme returns the URL scheme or an empty string for plain paths.
func Scheme(URL string) string {
	if !strings.Contains(URL, "://") && !strings.HasPrefix(URL, "file:") {
		return ""
	}
	return url.Scheme(URL, "")
}

// Qualify prefixes a scheme-less path with defaultFS.
func Qualify(URL, defaultFS string) string {
	if Scheme(URL) != "" || defaultFS == "" {
		return URL
	}
	return strings.TrimRight(defaultFS, "/") + "/" + strings.TrimLeft(URL, "/")
}

// AFS implements FileSystem on top of github.com/viant/afs.
type AFS struct {
	fs afs.Service
}

// NewAFS wraps service; a nil service selects afs.New().
func NewAFS(service afs.Service) *AFS {
	if service == nil {
		service = afs.New()
	}
	return &AFS{fs: service}
}

// Exists implements FileSystem.
func (a *AFS) Exists(ctx context.Context, URL string) (bool, error) {
	ok, err := a.fs.Exists(ctx, URL)
	if err != nil {
		return false, errors.Wrapf(err, "fsys: check %s", URL)
	}
	return ok, nil
}

// IsDirectory implements FileSystem.
func (a *AFS) IsDirectory(ctx context.Context, URL string) (bool, error) {
	object, err := a.fs.Object(ctx, URL)
	if err != nil {
		return false, errors.Wrapf(err, "fsys: stat %s", URL)
	}
	return object.IsDir(), nil
}

// List implements FileSystem. Only direct children are returned; the listed
// directory itself is skipped.
func (a *AFS) List(ctx context.Context, URL string) ([]Entry, error) {
	objects, err := a.fs.List(ctx, URL)
	if err != nil {
		return nil, errors.Wrapf(err, "fsys: list %s", URL)
	}
	self := path.Base(strings.TrimRight(URL, "/"))
	entries := make([]Entry, 0, len(objects))
	for i, object := range objects {
		if i == 0 && object.IsDir() && path.Base(strings.TrimRight(object.URL(), "/")) == self {
			continue
		}
		entries = append(entries, Entry{Name: object.Name(), URL: object.URL(), IsDir: object.IsDir()})
	}
	return entries, nil
}
