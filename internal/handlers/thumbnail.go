package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"alltube/internal/thumbnail"
)

// GetThumbnail proxies the source's thumbnail, resized. The width query
// parameter bounds the image; out-of-range values use the default.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	v, ok := h.videoFromRequest(r)
	if !ok {
		writeJSONError(w, "missing url parameter", http.StatusBadRequest)
		return
	}

	meta, err := v.Metadata(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	width, _ := strconv.Atoi(r.URL.Query().Get("width"))
	data, err := h.thumbs.FetchSized(r.Context(), meta.Thumbnail, width)
	if err != nil {
		if errors.Is(err, thumbnail.ErrNoThumbnail) {
			writeJSONError(w, "no thumbnail available", http.StatusNotFound)
			return
		}
		writeJSONError(w, "thumbnail fetch failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "max-age=86400")
	w.Write(data)
}
