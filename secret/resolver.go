package secret

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

const refPrefix = "secretref:"

var (
	// ErrUnknownProvider is returned for a reference naming a provider that
	// was never registered.
	ErrUnknownProvider = errors.New("secret: unknown provider")

	// ErrEmptySecret is returned in strict mode when a provider resolves a
	// reference to the empty string.
	ErrEmptySecret = errors.New("secret: empty value")
)

// ref is one parsed secretref:<provider>:<name> occurrence.
type ref struct {
	provider string
	name     string
}

func (r ref) String() string { return refPrefix + r.provider + ":" + r.name }

// Resolver turns configuration strings into their final values.
//
// ${VAR} placeholders are expanded first. A value that is then exactly a
// secret reference is replaced by the provider's answer; references
// embedded in a longer string are substituted in place.
type Resolver struct {
	providers map[string]Provider
	strict    bool
}

// NewResolver returns a resolver over providers. In strict mode an empty
// provider answer is an error.
func NewResolver(strict bool, providers ...Provider) *Resolver {
	r := &Resolver{providers: map[string]Provider{}, strict: strict}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// NewResolverFromRegistry creates each named provider from reg (or
// DefaultRegistry when reg is nil). Providers created before a failure are
// closed.
func NewResolverFromRegistry(reg *Registry, strict bool, specs map[string]map[string]any) (*Resolver, error) {
	if reg == nil {
		reg = DefaultRegistry
	}
	r := NewResolver(strict)
	for name, cfg := range specs {
		p, err := reg.Create(name, cfg)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("secret provider %q: %w", name, err), r.Close())
		}
		r.Register(p)
	}
	return r, nil
}

// Register adds provider, replacing any provider of the same name.
func (r *Resolver) Register(provider Provider) {
	if r == nil || provider == nil {
		return
	}
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	r.providers[provider.Name()] = provider
}

// ResolveValue expands value. A nil resolver only expands environment
// placeholders.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	out, err := ExpandEnvStrict(value)
	if err != nil || r == nil {
		return out, err
	}
	if whole, ok := parseRef(out); ok {
		return r.lookup(ctx, whole)
	}
	return r.substitute(ctx, out)
}

// Close closes the registered providers in name order and joins their errors.
func (r *Resolver) Close() error {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)

	var errs []error
	for _, name := range names {
		if err := r.providers[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// ParseSecretRef splits a value of the form secretref:<provider>:<ref>.
func ParseSecretRef(value string) (provider string, name string, ok bool) {
	p, ok := parseRef(value)
	return p.provider, p.name, ok
}

func parseRef(value string) (ref, bool) {
	rest, ok := strings.CutPrefix(value, refPrefix)
	if !ok {
		return ref{}, false
	}
	provider, name, ok := strings.Cut(rest, ":")
	if !ok || provider == "" || name == "" {
		return ref{}, false
	}
	return ref{provider: provider, name: name}, true
}

func (r *Resolver) lookup(ctx context.Context, rf ref) (string, error) {
	p, ok := r.providers[rf.provider]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownProvider, rf.provider)
	}
	v, err := p.Resolve(ctx, rf.name)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rf, err)
	}
	if v == "" && r.strict {
		return "", fmt.Errorf("%w from provider %q", ErrEmptySecret, rf.provider)
	}
	return v, nil
}

var embeddedRef = regexp.MustCompile(`secretref:([^:\s]+):(\S+)`)

func (r *Resolver) substitute(ctx context.Context, value string) (string, error) {
	var firstErr error
	out := embeddedRef.ReplaceAllStringFunc(value, func(m string) string {
		if firstErr != nil {
			return m
		}
		sub := embeddedRef.FindStringSubmatch(m)
		v, err := r.lookup(ctx, ref{provider: sub[1], name: sub[2]})
		if err != nil {
			firstErr = err
			return m
		}
		return v
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
