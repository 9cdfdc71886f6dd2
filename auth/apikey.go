package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"strings"
	"sync"
	"time"
)

// APIKeyHeader is the default API key header.
const APIKeyHeader = "X-API-Key"

// APIKeyInfo describes one registered key. Only the SHA-256 hash of the key
// is held.
type APIKeyInfo struct {
	ID        string         `mapstructure:"id"`
	KeyHash   string         `mapstructure:"hash"`
	Principal string         `mapstructure:"principal"`
	Roles     []string       `mapstructure:"roles"`
	ExpiresAt time.Time      `mapstructure:"expires_at"`
	Metadata  map[string]any `mapstructure:"metadata"`
}

// APIKeyStore looks keys up by hash.
type APIKeyStore interface {
	// Lookup returns nil when the hash is unknown.
	Lookup(ctx context.Context, keyHash string) (*APIKeyInfo, error)
}

// APIKeyAuthenticator validates API keys.
type APIKeyAuthenticator struct {
	header string
	store  APIKeyStore
	now    func() time.Time
}

// NewAPIKeyAuthenticator reads keys from header (APIKeyHeader when empty).
func NewAPIKeyAuthenticator(header string, store APIKeyStore) *APIKeyAuthenticator {
	if header == "" {
		header = APIKeyHeader
	}
	return &APIKeyAuthenticator{header: header, store: store, now: time.Now}
}

// Name returns "api_key".
func (a *APIKeyAuthenticator) Name() string {
	return "api_key"
}

// Supports reports whether the API key header is set.
func (a *APIKeyAuthenticator) Supports(_ context.Context, req *AuthRequest) bool {
	return req.GetHeader(a.header) != ""
}

// Authenticate hashes the presented key and looks it up.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error) {
	key := strings.TrimSpace(req.GetHeader(a.header))
	if key == "" {
		return AuthFailure(ErrMissingCredentials, "api_key"), nil
	}

	info, err := a.store.Lookup(ctx, HashAPIKey(key))
	if err != nil {
		return nil, err
	}
	if info == nil {
		return AuthFailure(ErrInvalidCredentials, "api_key"), nil
	}
	if !info.ExpiresAt.IsZero() && a.now().After(info.ExpiresAt) {
		return AuthFailure(ErrTokenExpired, "api_key"), nil
	}

	claims := make(map[string]any, len(info.Metadata)+1)
	maps.Copy(claims, info.Metadata)
	claims["key_id"] = info.ID

	return AuthSuccess(&Identity{
		Principal: info.Principal,
		Roles:     info.Roles,
		Method:    AuthMethodAPIKey,
		ExpiresAt: info.ExpiresAt,
		Claims:    claims,
	}), nil
}

// HashAPIKey returns the hex SHA-256 of key, the form stored in configuration.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// MemoryAPIKeyStore is an in-memory APIKeyStore.
type MemoryAPIKeyStore struct {
	mu   sync.RWMutex
	keys map[string]*APIKeyInfo
}

// NewMemoryAPIKeyStore creates a store preloaded with infos.
func NewMemoryAPIKeyStore(infos ...APIKeyInfo) *MemoryAPIKeyStore {
	s := &MemoryAPIKeyStore{keys: make(map[string]*APIKeyInfo, len(infos))}
	for i := range infos {
		s.Add(infos[i])
	}
	return s
}

// Lookup retrieves a key by hash.
func (s *MemoryAPIKeyStore) Lookup(_ context.Context, keyHash string) (*APIKeyInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[strings.ToLower(keyHash)], nil
}

// Add registers info under its hash.
func (s *MemoryAPIKeyStore) Add(info APIKeyInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[strings.ToLower(info.KeyHash)] = &info
}

// Len returns the number of registered keys.
func (s *MemoryAPIKeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

var (
	_ Authenticator = (*APIKeyAuthenticator)(nil)
	_ APIKeyStore   = (*MemoryAPIKeyStore)(nil)
)
