package main

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
)

// authHeader carries the API key on every authenticated request.
const authHeader = "markov-auth"

// AuthAPI guards the API with a single shared key.
type AuthAPI struct {
	keyHash [32]byte
	enabled bool
	logger  *slog.Logger
}

// NewAuthAPI creates the guard. An empty key leaves the API open.
func NewAuthAPI(apiKey string, logger *slog.Logger) *AuthAPI {
	a := &AuthAPI{logger: logger}
	if apiKey != "" {
		a.keyHash = sha256.Sum256([]byte(apiKey))
		a.enabled = true
	}
	return a
}

// Authenticate is the core auth function. It checks for a valid key in the
// "markov-auth" header before passing the request on.
func (a *AuthAPI) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.enabled {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get(authHeader)
		if apiKey == "" {
			respondWithError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
			return
		}

		// Hashing first keeps the comparison constant-time regardless of key length.
		given := sha256.Sum256([]byte(apiKey))
		if subtle.ConstantTimeCompare(given[:], a.keyHash[:]) != 1 {
			a.logger.Warn("Rejected request with invalid API key", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			respondWithError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Error("Failed to encode JSON response", "error", err)
		}
	}
}
