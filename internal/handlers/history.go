package handlers

import (
	"net/http"
	"strconv"
)

// GetHistory returns the most recent recorded downloads.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSONError(w, "history is disabled", http.StatusNotFound)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		writeJSONError(w, "failed to read history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
