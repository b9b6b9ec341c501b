package handlers

import (
	"errors"
	"net/http"
	"strings"

	"alltube/internal/archive"
	"alltube/internal/logging"
	"alltube/internal/stream"
	"alltube/internal/streaming"
)

// GetArchive serves a playlist as a streaming ZIP download. With audio set,
// every entry is converted to the configured audio format; entries that
// cannot be converted are skipped like any other failing entry.
func (h *Handlers) GetArchive(w http.ResponseWriter, r *http.Request) {
	v, ok := h.videoFromRequest(r)
	if !ok {
		writeJSONError(w, "missing url parameter", http.StatusBadRequest)
		return
	}

	entries, err := v.Entries(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if len(entries) == 0 {
		writeJSONError(w, "url is not a playlist", http.StatusBadRequest)
		return
	}

	opts := archive.Options{}
	if r.URL.Query().Get("audio") != "" {
		opts.Convert = true
		opts.Stream = stream.Options{
			AudioBitrate: h.cfg.AudioBitrate,
			Format:       h.cfg.AudioFormat,
		}
	}

	body, err := h.archiver.Stream(r.Context(), entries, opts)
	if err != nil {
		if errors.Is(err, archive.ErrNoEntries) {
			writeJSONError(w, "url is not a playlist", http.StatusBadRequest)
			return
		}
		h.writeError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", contentDisposition(archiveName(v.Title(r.Context()))))

	h.recordHistory(v, "archive")

	n, err := streaming.StreamWithTimeout(r.Context(), w, body, h.writerConfig)
	if err != nil && !errors.Is(err, streaming.ErrClientGone) && !errors.Is(err, streaming.ErrStreamCanceled) {
		logging.Error("Archive for %s failed after %d bytes: %v", v.PageURL(), n, err)
	}
}

// archiveName derives a ZIP filename from a playlist title.
func archiveName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '<', '>', '|':
			return '_'
		}
		return r
	}, title)
	name = strings.TrimSpace(name)
	if name == "" {
		name = "playlist"
	}
	return name + ".zip"
}
