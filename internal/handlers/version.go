package handlers

import (
	"net/http"

	"alltube/internal/version"
)

// GetVersion returns the application version and build information.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, version.Get())
}
