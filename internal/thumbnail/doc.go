// Package thumbnail fetches and resizes video thumbnails.
//
// Origin thumbnails arrive in whatever format the site serves (JPEG, PNG,
// GIF or WebP) and at arbitrary sizes. The proxy decodes, fits the image
// into a bounding box and re-encodes as JPEG so clients get a predictable
// small payload.
package thumbnail
