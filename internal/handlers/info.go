package handlers

import (
	"net/http"
)

// InfoResponse is the resolved-metadata payload for a page URL.
type InfoResponse struct {
	Title     string  `json:"title"`
	Extractor string  `json:"extractor,omitempty"`
	Protocol  string  `json:"protocol,omitempty"`
	Ext       string  `json:"ext,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Playlist  bool    `json:"playlist"`

	// Entries is present for playlists.
	Entries []InfoEntry `json:"entries,omitempty"`

	// URLCount is the number of direct media URLs the chosen format
	// resolves to. Zero for playlists (entries are resolved individually).
	URLCount int `json:"urlCount,omitempty"`
}

type InfoEntry struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
}

// GetInfo resolves metadata for the url query parameter.
func (h *Handlers) GetInfo(w http.ResponseWriter, r *http.Request) {
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

	resp := InfoResponse{
		Title:     v.Title(r.Context()),
		Extractor: meta.ExtractorKey,
		Protocol:  meta.Protocol,
		Ext:       meta.Ext,
		Duration:  meta.Duration,
		Thumbnail: meta.Thumbnail,
		Playlist:  meta.IsPlaylist(),
	}

	if resp.Playlist {
		for _, e := range meta.Entries {
			if e.URL == "" {
				continue
			}
			resp.Entries = append(resp.Entries, InfoEntry{ID: e.ID, Title: e.Title, URL: e.URL})
		}
	} else if urls, err := v.URLs(r.Context()); err == nil {
		resp.URLCount = len(urls)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

// GetExtractors lists the supported extractor backends.
func (h *Handlers) GetExtractors(w http.ResponseWriter, r *http.Request) {
	names, err := h.ext.Extractors(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "max-age=3600")
	writeJSON(w, map[string]interface{}{
		"extractors": names,
		"count":      len(names),
	})
}
