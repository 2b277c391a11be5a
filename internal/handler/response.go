package handler

import (
	"encoding/json"
	"net/http"
	"strings"
)

// UploadResponse is the in-band status envelope for upload endpoints. Errors
// are reported through the status field with HTTP 200, a contract kept for
// compatibility with existing consumers.
type UploadResponse struct {
	Status string `json:"status"`
}

const (
	statusSuccess        = "success"
	statusIncorrectAuth  = "Incorrect auth token"
	statusIncorrectData  = "Incorrect data"
	statusIncorrectChain = "Incorrect chain"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// authorized compares the request's bearer token with the configured upload
// token by exact match. An empty configured token rejects everything.
func authorized(r *http.Request, uploadToken string) bool {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return uploadToken != "" && token == uploadToken
}

// Redirect returns a handler that redirects to a fixed target path.
func Redirect(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
	}
}
