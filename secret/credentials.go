package secret

import (
	"context"
	"fmt"

	"github.com/jonwraymond/ttlrenew/store"
)

// ResolveCredentials resolves the host, username and password of creds.
// Errors name the field, never the value.
func ResolveCredentials(ctx context.Context, r *Resolver, creds store.Credentials) (store.Credentials, error) {
	out := creds
	fields := []struct {
		name string
		dst  *string
	}{
		{"host", &out.Host},
		{"username", &out.Username},
		{"password", &out.Password},
	}
	for _, f := range fields {
		if *f.dst == "" {
			continue
		}
		v, err := r.ResolveValue(ctx, *f.dst)
		if err != nil {
			return store.Credentials{}, fmt.Errorf("resolve store %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return out, nil
}
