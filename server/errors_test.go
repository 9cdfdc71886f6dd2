package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonwraymond/ttlrenew/auth"
	"github.com/jonwraymond/ttlrenew/renewal"
	"github.com/jonwraymond/ttlrenew/resilience"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"too large", fmt.Errorf("decode: %w", &http.MaxBytesError{Limit: 1}), http.StatusRequestEntityTooLarge, KindTooLarge},
		{"timeout", errors.Join(resilience.ErrTimeout, &renewal.Error{Kind: renewal.ErrConnection}), http.StatusGatewayTimeout, KindTimeout},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, KindTimeout},
		{"rate limited", resilience.ErrRateLimitExceeded, http.StatusTooManyRequests, KindRateLimited},
		{"bulkhead", resilience.ErrBulkheadFull, http.StatusServiceUnavailable, KindUnavailable},
		{"circuit open", resilience.ErrCircuitOpen, http.StatusServiceUnavailable, KindUnavailable},
		{"forbidden", &auth.AuthzError{Action: auth.ActionRenew}, http.StatusForbidden, KindAuthorization},
		{"expired token", auth.ErrTokenExpired, http.StatusUnauthorized, KindAuthentication},
		{"configuration", &renewal.Error{Kind: renewal.ErrConfiguration, Index: 0}, http.StatusBadRequest, renewal.KindConfiguration},
		{"decode", &renewal.Error{Kind: renewal.ErrValueDecode, Index: 0}, http.StatusUnprocessableEntity, renewal.KindValueDecode},
		{"connection", &renewal.Error{Kind: renewal.ErrConnection, Index: -1}, http.StatusBadGateway, renewal.KindConnection},
		{"store command", &renewal.Error{Kind: renewal.ErrStoreCommand, Index: 2}, http.StatusBadGateway, renewal.KindStoreCommand},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, kind := Classify(tt.err)
			if status != tt.status || kind != tt.kind {
				t.Fatalf("Classify() = %d %q, want %d %q", status, kind, tt.status, tt.kind)
			}
		})
	}
}
