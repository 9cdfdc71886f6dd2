package auth

import "errors"

var (
	// ErrMissingCredentials means the request carried no usable credential.
	ErrMissingCredentials = errors.New("auth: missing credentials")
	// ErrInvalidCredentials means the credential was present but rejected.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrTokenExpired means the key or token is past its expiry.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenMalformed means the token could not be parsed.
	ErrTokenMalformed = errors.New("auth: token malformed")

	// ErrForbidden means the identity lacks the required role.
	ErrForbidden = errors.New("auth: access denied")
)
