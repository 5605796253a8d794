package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// authHeader is the request header carrying the API key.
const authHeader = "X-API-Key"

// requireAPIKey rejects requests whose X-API-Key header does not match the
// configured key. The comparison is constant-time so response latency leaks
// nothing about how much of a guessed key was correct.
func requireAPIKey(expected string) func(http.Handler) http.Handler {
	want := []byte(expected)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(authHeader))
			if len(got) == 0 {
				writeError(w, http.StatusUnauthorized, "missing "+authHeader+" header")
				return
			}
			if subtle.ConstantTimeCompare(got, want) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeSuccess wraps data in the standard response envelope.
func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

// writeError reports a failure with the given HTTP status.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Success: false, Error: message})
}
