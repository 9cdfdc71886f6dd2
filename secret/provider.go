package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}

// ErrSecretNotFound indicates the provider has no value for the reference.
var ErrSecretNotFound = errors.New("secret: not found")

// EnvProvider resolves references as environment variable names.
type EnvProvider struct{}

// Name returns "env".
func (EnvProvider) Name() string { return "env" }

// Resolve returns the value of the variable named ref.
func (EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("%w: env %q", ErrSecretNotFound, ref)
	}
	return v, nil
}

// Close is a no-op.
func (EnvProvider) Close() error { return nil }

// FileProvider resolves references as files under Dir, the layout used by
// Docker and Kubernetes secret mounts. Trailing newlines are trimmed.
type FileProvider struct {
	Dir string
}

// NewFileProvider creates a file provider rooted at dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{Dir: dir}
}

// Name returns "file".
func (p *FileProvider) Name() string { return "file" }

// Resolve reads the file named ref. References may not escape Dir.
func (p *FileProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := ref
	if p.Dir != "" {
		path = filepath.Join(p.Dir, ref)
		rel, err := filepath.Rel(p.Dir, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", fmt.Errorf("secret: file ref %q escapes %q", ref, p.Dir)
		}
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: file %q", ErrSecretNotFound, ref)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// Close is a no-op.
func (p *FileProvider) Close() error { return nil }

var (
	_ Provider = EnvProvider{}
	_ Provider = (*FileProvider)(nil)
)
