package video

import (
	"context"
	"html"
	"strings"
	"sync"

	"alltube/internal/extractor"
)

// Extractor is the subset of the extraction client a Video needs. It is an
// interface so resolution logic can be tested without spawning processes.
type Extractor interface {
	Info(ctx context.Context, req extractor.Request) (*extractor.Metadata, error)
	URLs(ctx context.Context, req extractor.Request) ([]string, error)
	Filename(ctx context.Context, req extractor.Request) (string, error)
}

// Video resolves one page URL into metadata and media URLs, caching each
// result after the first fetch. A Video is owned by a single request and is
// safe for concurrent use within it.
type Video struct {
	ext      Extractor
	pageURL  string
	format   string
	password string

	mu sync.Mutex

	metaOnce bool
	meta     *extractor.Metadata
	metaErr  error

	urlsOnce bool
	urls     []string
	urlsErr  error

	nameOnce bool
	name     string
	nameErr  error
}

// New creates a resolver for pageURL. An empty format defaults to "best".
func New(ext Extractor, pageURL, format, password string) *Video {
	if format == "" {
		format = "best"
	}
	return &Video{
		ext:      ext,
		pageURL:  pageURL,
		format:   format,
		password: password,
	}
}

// WithFormat derives a new Video sharing the page URL and password but
// requesting a different format. The new instance owns an independent
// metadata cache.
func (v *Video) WithFormat(format string) *Video {
	return New(v.ext, v.pageURL, format, v.password)
}

// PageURL returns the page URL this Video resolves.
func (v *Video) PageURL() string { return v.pageURL }

// Format returns the requested format selector.
func (v *Video) Format() string { return v.format }

// Password returns the video password, empty when none was supplied.
func (v *Video) Password() string { return v.password }

func (v *Video) request() extractor.Request {
	return extractor.Request{URL: v.pageURL, Format: v.format, Password: v.password}
}

// Metadata fetches and caches the video metadata. Subsequent calls return
// the cached result, including a cached failure.
func (v *Video) Metadata(ctx context.Context) (*extractor.Metadata, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.metaOnce {
		v.meta, v.metaErr = v.ext.Info(ctx, v.request())
		v.metaOnce = true
	}
	return v.meta, v.metaErr
}

// URLs fetches and caches the direct media URLs, in order.
func (v *Video) URLs(ctx context.Context) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.urlsOnce {
		v.urls, v.urlsErr = v.ext.URLs(ctx, v.request())
		v.urlsOnce = true
	}
	return v.urls, v.urlsErr
}

// Filename fetches and caches the filename the extraction tool would use.
func (v *Video) Filename(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.nameOnce {
		v.name, v.nameErr = v.ext.Filename(ctx, v.request())
		v.nameOnce = true
	}
	return v.name, v.nameErr
}

// FilenameWithExt returns the resolved filename with its extension replaced.
// The extraction tool HTML-escapes some filenames, so entities are decoded.
func (v *Video) FilenameWithExt(ctx context.Context, ext string) (string, error) {
	name, err := v.Filename(ctx)
	if err != nil {
		return "", err
	}
	return html.UnescapeString(replaceExt(name, ext)), nil
}

// Title returns the metadata title, falling back to the page URL when the
// field is absent.
func (v *Video) Title(ctx context.Context) string {
	meta, err := v.Metadata(ctx)
	if err != nil || meta.Title == "" {
		return v.pageURL
	}
	return meta.Title
}

// Entries resolves the playlist items as derived Videos sharing this Video's
// format and password. It returns nil for a non-playlist source.
func (v *Video) Entries(ctx context.Context) ([]*Video, error) {
	meta, err := v.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	if !meta.IsPlaylist() {
		return nil, nil
	}

	items := make([]*Video, 0, len(meta.Entries))
	for _, entry := range meta.Entries {
		if entry.URL == "" {
			continue
		}
		items = append(items, New(v.ext, entry.URL, v.format, v.password))
	}
	return items, nil
}

// replaceExt swaps the extension of a filename. Names without an extension
// get one appended.
func replaceExt(name, ext string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	return name + "." + ext
}
