package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/ttlrenew/auth"
	"github.com/jonwraymond/ttlrenew/renewal"
	"github.com/jonwraymond/ttlrenew/resilience"
)

// Kind names that are not renewal error kinds.
const (
	KindAuthentication = "authentication"
	KindAuthorization  = "authorization"
	KindUnavailable    = "unavailable"
	KindRateLimited    = "rate_limited"
	KindTimeout        = "timeout"
	KindTooLarge       = "too_large"
	KindInternal       = "internal"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Classify maps err to an HTTP status and kind name.
func Classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, KindTooLarge
	case errors.Is(err, resilience.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, KindTimeout
	case errors.Is(err, resilience.ErrRateLimitExceeded):
		return http.StatusTooManyRequests, KindRateLimited
	case resilience.Rejected(err):
		return http.StatusServiceUnavailable, KindUnavailable
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, KindAuthorization
	case errors.Is(err, auth.ErrMissingCredentials), errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrTokenMalformed):
		return http.StatusUnauthorized, KindAuthentication
	}

	switch kind := renewal.KindOf(err); kind {
	case renewal.KindConfiguration:
		return http.StatusBadRequest, kind
	case renewal.KindValueDecode:
		return http.StatusUnprocessableEntity, kind
	case renewal.KindConnection, renewal.KindStoreCommand:
		return http.StatusBadGateway, kind
	}
	return http.StatusInternalServerError, KindInternal
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeStatusError(w http.ResponseWriter, status int, kind string, err error) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="ttlrenew"`)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}
