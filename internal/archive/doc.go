// Package archive streams a playlist's videos as a single ZIP file.
//
// The archive is produced incrementally over a pipe: each entry's bytes are
// written into the ZIP stream as they arrive from its source, so the full
// playlist never exists on disk or in memory. ZIP data descriptors carry the
// sizes and checksums, which are unknowable up front for live streams.
package archive
