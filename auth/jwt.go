package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures the bearer token authenticator.
type JWTConfig struct {
	// Secret is the HS256 signing key.
	Secret string `mapstructure:"secret"`

	// Issuer, when set, must match the iss claim.
	Issuer string `mapstructure:"issuer"`

	// Audience, when set, must appear in the aud claim.
	Audience string `mapstructure:"audience"`

	// PrincipalClaim defaults to "sub".
	PrincipalClaim string `mapstructure:"principal_claim"`

	// RolesClaim defaults to "roles".
	RolesClaim string `mapstructure:"roles_claim"`
}

const bearerPrefix = "Bearer "

// JWTAuthenticator validates HS256 bearer tokens.
type JWTAuthenticator struct {
	config JWTConfig
	parser *jwt.Parser
}

// NewJWTAuthenticator creates an authenticator from config.
func NewJWTAuthenticator(config JWTConfig) *JWTAuthenticator {
	if config.PrincipalClaim == "" {
		config.PrincipalClaim = "sub"
	}
	if config.RolesClaim == "" {
		config.RolesClaim = "roles"
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	return &JWTAuthenticator{config: config, parser: jwt.NewParser(opts...)}
}

// Name returns "jwt".
func (a *JWTAuthenticator) Name() string {
	return "jwt"
}

// Supports reports whether the request carries a bearer token.
func (a *JWTAuthenticator) Supports(_ context.Context, req *AuthRequest) bool {
	return strings.HasPrefix(req.GetHeader("Authorization"), bearerPrefix)
}

// Authenticate parses and verifies the bearer token.
func (a *JWTAuthenticator) Authenticate(_ context.Context, req *AuthRequest) (*AuthResult, error) {
	header := req.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, bearerPrefix)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return AuthFailure(ErrMissingCredentials, "jwt"), nil
	}

	claims := jwt.MapClaims{}
	_, err := a.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(a.config.Secret), nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return AuthFailure(ErrTokenExpired, "jwt"), nil
	case errors.Is(err, jwt.ErrTokenMalformed):
		return AuthFailure(ErrTokenMalformed, "jwt"), nil
	case err != nil:
		return AuthFailure(ErrInvalidCredentials, "jwt"), nil
	}

	return AuthSuccess(a.identity(claims)), nil
}

func (a *JWTAuthenticator) identity(claims jwt.MapClaims) *Identity {
	id := &Identity{
		Method: AuthMethodJWT,
		Claims: make(map[string]any, len(claims)),
	}
	for k, v := range claims {
		id.Claims[k] = v
	}
	id.Principal, _ = claims[a.config.PrincipalClaim].(string)

	switch roles := claims[a.config.RolesClaim].(type) {
	case []any:
		for _, r := range roles {
			if s, ok := r.(string); ok {
				id.Roles = append(id.Roles, s)
			}
		}
	case string:
		id.Roles = strings.Fields(roles)
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id
}

// SignToken issues an HS256 token for principal with roles, valid for ttl.
// Used by tooling and tests that need a token the authenticator accepts.
func SignToken(config JWTConfig, principal string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   principal,
		"roles": roles,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if config.Issuer != "" {
		claims["iss"] = config.Issuer
	}
	if config.Audience != "" {
		claims["aud"] = config.Audience
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.Secret))
}

var _ Authenticator = (*JWTAuthenticator)(nil)
