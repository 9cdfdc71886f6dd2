package config

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/jonwraymond/ttlrenew/auth"
	"github.com/jonwraymond/ttlrenew/observe"
	"github.com/jonwraymond/ttlrenew/renewal"
	"github.com/jonwraymond/ttlrenew/resilience"
	"github.com/jonwraymond/ttlrenew/store"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "TTLRENEW"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the full configuration of the binary.
type Config struct {
	Store   store.Credentials `mapstructure:"store"`
	Renewal renewal.Config    `mapstructure:"renewal"`
	Observe observe.Config    `mapstructure:"observe"`
	Server  ServerConfig      `mapstructure:"server"`
	Retry   RetryConfig       `mapstructure:"retry"`
	Secrets SecretsConfig     `mapstructure:"secrets"`
	Auth    AuthConfig        `mapstructure:"auth"`
}

// ServerConfig configures the HTTP surface and the batch guards.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`

	Bulkhead  resilience.BulkheadConfig       `mapstructure:"bulkhead"`
	Breaker   resilience.CircuitBreakerConfig `mapstructure:"breaker"`
	RateLimit resilience.RateLimiterConfig    `mapstructure:"rate_limit"`
}

// RetryConfig configures whole-batch retries.
type RetryConfig struct {
	resilience.RetryConfig `mapstructure:",squash"`

	// Backoff is exponential, linear or constant.
	Backoff string `mapstructure:"backoff"`
}

// Policy returns the resilience form with Strategy set from Backoff.
func (r RetryConfig) Policy() resilience.RetryConfig {
	p := r.RetryConfig
	p.Strategy = resilience.ParseBackoff(r.Backoff)
	return p
}

// SecretsConfig configures credential resolution.
type SecretsConfig struct {
	// Strict rejects secret references that resolve to "".
	Strict bool `mapstructure:"strict"`

	// Providers maps provider name to its settings, e.g. file: {dir: /run/secrets}.
	Providers map[string]map[string]any `mapstructure:"providers"`
}

// ProviderSpecs returns the configured providers plus env, which is always
// available.
func (s SecretsConfig) ProviderSpecs() map[string]map[string]any {
	out := maps.Clone(s.Providers)
	if out == nil {
		out = make(map[string]map[string]any, 1)
	}
	if _, ok := out["env"]; !ok {
		out["env"] = nil
	}
	return out
}

// AuthConfig configures the HTTP authenticators. With no API keys and no
// JWT secret the server accepts anonymous requests.
type AuthConfig struct {
	APIKeyHeader string            `mapstructure:"api_key_header"`
	APIKeys      []auth.APIKeyInfo `mapstructure:"api_keys"`
	JWT          auth.JWTConfig    `mapstructure:"jwt"`

	// RenewRole, when set, is required for auth.ActionRenew.
	RenewRole string `mapstructure:"renew_role"`
}

// Enabled reports whether any authenticator is configured.
func (a AuthConfig) Enabled() bool {
	return len(a.APIKeys) > 0 || a.JWT.Secret != ""
}

// SetDefaults registers every key with its default so that environment
// variables are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	creds := store.DefaultCredentials()
	v.SetDefault("store.host", creds.Host)
	v.SetDefault("store.port", creds.Port)
	v.SetDefault("store.username", "")
	v.SetDefault("store.password", "")
	v.SetDefault("store.database", 0)
	v.SetDefault("store.tls", false)
	v.SetDefault("store.tls_skip_verify", false)
	v.SetDefault("store.dial_timeout", creds.DialTimeout)
	v.SetDefault("store.read_timeout", 0)
	v.SetDefault("store.write_timeout", 0)

	rc := renewal.DefaultConfig()
	v.SetDefault("renewal.renewal_ttl", rc.RenewalTTL)
	v.SetDefault("renewal.renewal_threshold", rc.RenewalThreshold)
	v.SetDefault("renewal.original_ttl", rc.OriginalTTL)
	v.SetDefault("renewal.include_value", rc.IncludeValue)
	v.SetDefault("renewal.output_property", rc.OutputProperty)
	v.SetDefault("renewal.parse_json", rc.ParseJSON)
	v.SetDefault("renewal.include_metadata", rc.IncludeMetadata)

	v.SetDefault("observe.service_name", "ttlrenew")
	v.SetDefault("observe.version", "dev")
	v.SetDefault("observe.tracing.enabled", false)
	v.SetDefault("observe.tracing.exporter", "none")
	v.SetDefault("observe.tracing.sample_pct", 1.0)
	v.SetDefault("observe.metrics.enabled", false)
	v.SetDefault("observe.metrics.exporter", "none")
	v.SetDefault("observe.logging.enabled", true)
	v.SetDefault("observe.logging.level", "info")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.batch_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", 8<<20)
	v.SetDefault("server.bulkhead.max_concurrent", 10)
	v.SetDefault("server.bulkhead.max_wait", 0)
	v.SetDefault("server.breaker.max_failures", 5)
	v.SetDefault("server.breaker.reset_timeout", 30*time.Second)
	v.SetDefault("server.breaker.half_open_max_requests", 1)
	v.SetDefault("server.rate_limit.rate", 0)
	v.SetDefault("server.rate_limit.burst", 0)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_delay", 100*time.Millisecond)
	v.SetDefault("retry.max_delay", 5*time.Second)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter", true)
	v.SetDefault("retry.backoff", "exponential")

	v.SetDefault("secrets.strict", true)

	v.SetDefault("auth.api_key_header", auth.APIKeyHeader)
	v.SetDefault("auth.jwt.secret", "")
	v.SetDefault("auth.jwt.issuer", "")
	v.SetDefault("auth.jwt.audience", "")
	v.SetDefault("auth.renew_role", "")
}

// Load reads configuration into a Config. A nil v uses a fresh viper
// instance; pass the instance flags were bound to so they take precedence.
// An empty path skips the config file.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section and joins the failures.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Store.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := c.Renewal.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("renewal: %w", err))
	}
	if err := c.Observe.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observe: %w", err))
	}
	if c.Server.BatchTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server: timeouts must not be negative"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server: max_body_bytes must be positive"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry: max_attempts must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	switch c.Retry.Backoff {
	case "", "exponential", "linear", "constant":
	default:
		errs = append(errs, fmt.Errorf("retry: unknown backoff %q", c.Retry.Backoff))
	}
	for i, k := range c.Auth.APIKeys {
		if k.KeyHash == "" || k.Principal == "" {
			errs = append(errs, fmt.Errorf("auth: api_keys[%d] needs hash and principal", i))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
