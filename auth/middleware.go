package auth

import (
	"errors"
	"net/http"
)

// ErrorWriter renders an authentication or authorization failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, err error)

// Middleware authenticates each request with authn and, when authz is set,
// checks action. A nil authn attaches AnonymousIdentity. Failures are
// rendered with onError: 401 for missing or rejected credentials, 403 for
// denied actions, 500 for authenticator errors.
func Middleware(authn Authenticator, authz Authorizer, action string, onError ErrorWriter) func(http.Handler) http.Handler {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, status int, err error) {
			http.Error(w, err.Error(), status)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id := AnonymousIdentity()
			if authn != nil {
				result, err := authn.Authenticate(ctx, &AuthRequest{Headers: r.Header})
				if err != nil {
					onError(w, r, http.StatusInternalServerError, err)
					return
				}
				if !result.Authenticated {
					onError(w, r, http.StatusUnauthorized, result.Error)
					return
				}
				id = result.Identity
			}

			if authz != nil {
				if err := authz.Authorize(ctx, id, action); err != nil {
					status := http.StatusForbidden
					if !errors.Is(err, ErrForbidden) {
						status = http.StatusInternalServerError
					}
					onError(w, r, status, err)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
		})
	}
}
