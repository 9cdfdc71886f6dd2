package secret

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	name    string
	values  map[string]string
	resolve func(ref string) (string, error)
	closed  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Resolve(_ context.Context, ref string) (string, error) {
	if s.resolve != nil {
		return s.resolve(ref)
	}
	if s.values == nil {
		return "", nil
	}
	return s.values[ref], nil
}

func (s *stubProvider) Close() error {
	s.closed++
	return nil
}

func TestParseSecretRef(t *testing.T) {
	provider, ref, ok := ParseSecretRef("secretref:stub:alpha")
	if !ok {
		t.Fatalf("expected secretref to parse")
	}
	if provider != "stub" || ref != "alpha" {
		t.Fatalf("unexpected values: %q %q", provider, ref)
	}

	for _, v := range []string{"not-a-secretref", "secretref:", "secretref:stub:", "secretref::x"} {
		if _, _, ok := ParseSecretRef(v); ok {
			t.Fatalf("ParseSecretRef(%q) should fail", v)
		}
	}
}

func TestResolver_ResolvesFullSecretRef(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"alpha": "one"}})

	got, err := r.ResolveValue(context.Background(), "secretref:stub:alpha")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "one" {
		t.Fatalf("ResolveValue() = %q, want %q", got, "one")
	}
}

func TestResolver_ResolvesInlineSecretRef(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"beta": "two"}})

	got, err := r.ResolveValue(context.Background(), "user:secretref:stub:beta")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "user:two" {
		t.Fatalf("ResolveValue() = %q, want %q", got, "user:two")
	}
}

func TestResolver_LiteralPassthrough(t *testing.T) {
	r := NewResolver(true)

	got, err := r.ResolveValue(context.Background(), "pa$word")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "pa$word" {
		t.Fatalf("ResolveValue() = %q, want literal", got)
	}
}

func TestResolver_StrictEmptyProviderValueErrors(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"empty": ""}})

	if _, err := r.ResolveValue(context.Background(), "secretref:stub:empty"); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}

	lax := NewResolver(false, &stubProvider{name: "stub", values: map[string]string{"empty": ""}})
	got, err := lax.ResolveValue(context.Background(), "secretref:stub:empty")
	if err != nil || got != "" {
		t.Fatalf("non-strict ResolveValue() = %q, %v", got, err)
	}
}

func TestResolver_UnknownProviderErrors(t *testing.T) {
	r := NewResolver(true)

	if _, err := r.ResolveValue(context.Background(), "secretref:vault:x"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestResolver_ProviderErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	r := NewResolver(true, &stubProvider{name: "stub", resolve: func(string) (string, error) { return "", boom }})

	_, err := r.ResolveValue(context.Background(), "secretref:stub:alpha")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestResolver_NilResolverExpandsEnv(t *testing.T) {
	t.Setenv("TTLRENEW_TEST_HOST", "cache.internal")

	var r *Resolver
	got, err := r.ResolveValue(context.Background(), "${TTLRENEW_TEST_HOST}")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "cache.internal" {
		t.Fatalf("ResolveValue() = %q", got)
	}
}

func TestResolver_CloseClosesProviders(t *testing.T) {
	p := &stubProvider{name: "stub"}
	r := NewResolver(true, p)

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if p.closed != 1 {
		t.Fatalf("provider closed %d times, want 1", p.closed)
	}
}

func TestResolver_InlineRefErrorStopsSubstitution(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"a": "one"}})

	_, err := r.ResolveValue(context.Background(), "x secretref:stub:a secretref:none:b")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}
