package secret

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// ProviderFactory builds a Provider from its raw configuration block.
type ProviderFactory func(cfg map[string]any) (Provider, error)

// ErrProviderExists is returned when a factory name is registered twice.
var ErrProviderExists = errors.New("secret: provider already registered")

// Registry maps provider names to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]ProviderFactory{}}
}

type fileProviderConfig struct {
	Dir string `mapstructure:"dir"`
}

func newFileProvider(cfg map[string]any) (Provider, error) {
	var fc fileProviderConfig
	if err := mapstructure.Decode(cfg, &fc); err != nil {
		return nil, fmt.Errorf("file provider: %w", err)
	}
	if fc.Dir == "" {
		return nil, errors.New(`file provider: "dir" is required`)
	}
	return NewFileProvider(fc.Dir), nil
}

// NewDefaultRegistry returns a registry holding the env provider and the
// file provider, which reads one secret per file under cfg["dir"].
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.factories["env"] = func(map[string]any) (Provider, error) { return EnvProvider{}, nil }
	r.factories["file"] = newFileProvider
	return r
}

// Register adds factory under name.
func (r *Registry) Register(name string, factory ProviderFactory) error {
	name = strings.TrimSpace(name)
	if name == "" || factory == nil {
		return errors.New("secret: provider name and factory are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("%w: %q", ErrProviderExists, name)
	}
	r.factories[name] = factory
	return nil
}

// Create builds the provider registered under name.
func (r *Registry) Create(name string, cfg map[string]any) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[strings.TrimSpace(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownProvider, name)
	}
	return factory(cfg)
}

// List returns the registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// DefaultRegistry is the process-wide registry used when none is given.
var DefaultRegistry = NewDefaultRegistry()
