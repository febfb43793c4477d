// Package handlers implements the JSON API surface of the creative console.
// Each handler group wraps its collaborators and exposes http.HandlerFunc
// methods mounted by the router.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
)

// maxBodyBytes caps request bodies. Logo uploads travel as base64 data URLs
// inside JSON, so the cap is generous.
const maxBodyBytes = 32 << 20

// respond writes a JSON response with the given status.
func respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError writes a JSON error body with the given status.
func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON request body into dst with a size cap and strict
// field checking. Returns a user-facing error message on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errors.New("request body too large")
		}
		return errors.New("invalid JSON body")
	}
	return nil
}
