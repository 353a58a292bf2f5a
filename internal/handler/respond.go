package handler

import (
	"encoding/json"
	"net/http"
)

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, status int, message, detail string) {
	body := map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	}
	if detail != "" {
		body["detail"] = detail
	}
	respondJSON(w, status, body)
}
