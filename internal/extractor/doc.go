// Package extractor invokes the external extraction tool (yt-dlp) to resolve
// a page URL into media URLs and metadata.
//
// The tool is treated as a black box with a defined argument, exit-code and
// stderr contract. Failures are classified into typed errors so callers can
// route password-protected sources to a password prompt instead of a generic
// error surface.
package extractor
