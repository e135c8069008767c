package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/KyleBrandon/w1-reporter/pkg/utils"
)

var (
	ErrNoAuthHeader  = errors.New("authorization header not found")
	ErrInvalidApiKey = errors.New("invalid api key")
)

// ParseApiKey extracts the key from an "Authorization: ApiKey <key>" header.
func ParseApiKey(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrNoAuthHeader
	}

	var apiKey string
	n, err := fmt.Sscanf(authHeader, "ApiKey %s", &apiKey)
	if n != 1 || err != nil {
		return "", ErrNoAuthHeader
	}

	return apiKey, nil
}

// CheckApiKey compares the request key against want in constant time.
func CheckApiKey(r *http.Request, want string) error {
	apiKey, err := ParseApiKey(r)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(apiKey), []byte(want)) != 1 {
		return ErrInvalidApiKey
	}

	return nil
}

// RequireApiKey wraps next so it only runs for requests carrying want. An
// empty want leaves next unprotected.
func RequireApiKey(want string, next http.HandlerFunc) http.HandlerFunc {
	if want == "" {
		return next
	}

	return func(writer http.ResponseWriter, req *http.Request) {
		if err := CheckApiKey(req, want); err != nil {
			slog.Warn("rejected request", "path", req.URL.Path, "error", err)
			utils.RespondWithError(writer, http.StatusUnauthorized, "Couldn't validate API key", err)
			return
		}

		next(writer, req)
	}
}
