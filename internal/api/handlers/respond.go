package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// respondJSON writes v as the JSON response body.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response body")
	}
}

// respondError writes a JSON error body. Every failure surface of the API
// uses this shape.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondInternal logs an unexpected error and writes a generic 500.
func respondInternal(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("Unhandled error")
	respondError(w, http.StatusInternalServerError, "Internal server error")
}
