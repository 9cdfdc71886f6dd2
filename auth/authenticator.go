package auth

import (
	"context"
	"net/http"
)

// Authenticator validates credentials and returns an identity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Authenticate returns (nil, error) for internal errors and
//   (AuthResult, nil) for rejected credentials.
type Authenticator interface {
	Name() string

	// Supports reports whether the request carries this authenticator's credential.
	Supports(ctx context.Context, req *AuthRequest) bool

	Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error)
}

// AuthRequest carries the request headers an authenticator may read.
type AuthRequest struct {
	Headers http.Header
}

// GetHeader returns the first value for key, matched case-insensitively.
func (r *AuthRequest) GetHeader(key string) string {
	if r == nil || r.Headers == nil {
		return ""
	}
	return r.Headers.Get(key)
}

// AuthResult is the outcome of one authentication attempt.
type AuthResult struct {
	Authenticated bool
	Identity      *Identity
	Error         error
	Method        string
}

// AuthSuccess creates a successful result.
func AuthSuccess(identity *Identity) *AuthResult {
	return &AuthResult{
		Authenticated: true,
		Identity:      identity,
		Method:        string(identity.Method),
	}
}

// AuthFailure creates a rejected result.
func AuthFailure(err error, method string) *AuthResult {
	return &AuthResult{
		Error:  err,
		Method: method,
	}
}
