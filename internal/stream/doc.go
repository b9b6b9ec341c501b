// Package stream builds the output byte stream for a resolved video.
//
// Six stream kinds are supported: raw passthrough of the origin HTTP body,
// audio-only conversion, caller-chosen generic conversion, remuxing of
// separate video and audio streams, RTMP capture, and repackaging of an HLS
// source into a single progressive container. All kinds produce the same
// result: an opaque byte-stream handle plus the content type and extension
// needed for response headers. Bytes become available incrementally as the
// transcoder or origin produces them; nothing is buffered in full.
package stream
