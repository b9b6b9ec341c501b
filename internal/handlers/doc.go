// Package handlers contains the HTTP handlers for the service.
//
// Handlers are a thin layer: they parse query parameters into resolver and
// pipeline calls, map the error taxonomy onto HTTP status codes, and copy
// stream bodies to the client through the timeout-protected writer. All
// media logic lives in the extractor, video, stream and archive packages.
package handlers
