package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware(t *testing.T) {
	keys := NewAPIKeyAuthenticator("", NewMemoryAPIKeyStore(
		APIKeyInfo{ID: "w", KeyHash: HashAPIKey("writer"), Principal: "writer", Roles: []string{"renewer"}},
		APIKeyInfo{ID: "r", KeyHash: HashAPIKey("reader"), Principal: "reader"},
	))
	authz := NewRoleAuthorizer(map[string]string{ActionRenew: "renewer"})

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	var gotErr error
	onError := func(w http.ResponseWriter, _ *http.Request, status int, err error) {
		gotErr = err
		w.WriteHeader(status)
	}
	h := Middleware(keys, authz, ActionRenew, onError)(next)

	tests := []struct {
		name      string
		key       string
		code      int
		principal string
		wantErr   error
	}{
		{"authorized", "writer", http.StatusNoContent, "writer", nil},
		{"forbidden", "reader", http.StatusForbidden, "", ErrForbidden},
		{"unauthenticated", "", http.StatusUnauthorized, "", ErrMissingCredentials},
		{"bad key", "bogus", http.StatusUnauthorized, "", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen, gotErr = "", nil
			req := httptest.NewRequest(http.MethodPost, "/v1/renew", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.code {
				t.Fatalf("code = %d, want %d", rec.Code, tt.code)
			}
			if seen != tt.principal {
				t.Fatalf("principal = %q, want %q", seen, tt.principal)
			}
			if tt.wantErr != nil && !errors.Is(gotErr, tt.wantErr) {
				t.Fatalf("error = %v, want %v", gotErr, tt.wantErr)
			}
		})
	}
}

func TestMiddleware_NoAuthenticatorIsAnonymous(t *testing.T) {
	var seen *Identity
	h := Middleware(nil, nil, ActionRenew, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	if seen == nil || seen.Method != AuthMethodAnonymous {
		t.Fatalf("expected anonymous identity, got %+v", seen)
	}
}
