// Package streaming provides timeout-protected chunked writing of media
// streams to HTTP responses.
//
// Media transfers can run for a long time at whatever pace the client pulls
// bytes, so a plain io.Copy onto an http.ResponseWriter can hang forever on a
// stalled client and leak the producing subprocess. The TimeoutWriter bounds
// individual writes, detects idle connections, and reports client disconnects
// so the caller can tear the producer down.
package streaming
