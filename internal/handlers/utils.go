package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"alltube/internal/logging"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding errors are logged since we cannot recover from them once the
// response has started.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// contentDisposition builds an attachment header value. Quotes and control
// characters are stripped so the filename cannot break out of the header.
func contentDisposition(filename string) string {
	clean := strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return -1
		}
		return r
	}, filename)
	return `attachment; filename="` + clean + `"`
}
