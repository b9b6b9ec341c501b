// Package video models a single resolvable video: a page URL, a requested
// format and an optional password, together with lazily fetched and memoized
// metadata and media URLs.
//
// A Video is request-scoped. Metadata is fetched at most once per instance;
// asking for a different format means deriving a new instance with
// WithFormat, which shares the page URL and password but owns a fresh cache.
package video
