package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/ttlrenew/auth"
	"github.com/jonwraymond/ttlrenew/config"
	"github.com/jonwraymond/ttlrenew/observe"
	"github.com/jonwraymond/ttlrenew/renewal"
	"github.com/jonwraymond/ttlrenew/resilience"
	"github.com/jonwraymond/ttlrenew/secret"
	"github.com/jonwraymond/ttlrenew/store"
)

const telemetryFlushTimeout = 5 * time.Second

// runtime is the wired object graph behind a subcommand.
type runtime struct {
	obs      observe.Observer
	logger   observe.Logger
	mw       *observe.Middleware
	resolver *secret.Resolver
	manager  *store.Manager
	engine   *renewal.Engine
	creds    store.Credentials
}

func (a *app) newRuntime(ctx context.Context) (*runtime, error) {
	obs, err := observe.NewObserver(ctx, a.cfg.Observe)
	if err != nil {
		return nil, fmt.Errorf("observe: %w", err)
	}
	rt := &runtime{obs: obs, logger: obs.Logger()}

	metrics, err := observe.NewMetrics(obs.Meter())
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("observe: %w", err)
	}
	rt.mw = observe.NewMiddleware(observe.NewTracer(obs.Tracer()), metrics, rt.logger)

	rt.resolver, err = secret.NewResolverFromRegistry(nil, a.cfg.Secrets.Strict, a.cfg.Secrets.ProviderSpecs())
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.creds, err = secret.ResolveCredentials(ctx, rt.resolver, a.cfg.Store)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	rt.manager = store.NewManager(store.NewRedisDialer(), store.WithLogger(rt.logger))
	rt.engine = renewal.NewEngine(renewal.WithLogger(rt.logger), renewal.WithMetrics(metrics))
	return rt, nil
}

// retry builds the whole-batch retry from rc. Only connection and store
// command failures are retried; each retry is logged at warn.
func (rt *runtime) retry(ctx context.Context, rc config.RetryConfig) *resilience.Retry {
	policy := rc.Policy()
	policy.RetryIf = renewal.Retryable
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		rt.logger.Warn(ctx, "retrying renewal batch",
			observe.F("attempt", attempt), observe.F("delay_ms", delay.Milliseconds()), observe.F("error", err))
	}
	return resilience.NewRetry(policy)
}

// serveExecutor guards HTTP batches. The executor applies, outermost
// first: rate limit, bulkhead, breaker, retry, timeout.
func (rt *runtime) serveExecutor(ctx context.Context, cfg *config.Config) *resilience.Executor {
	sc := cfg.Server
	breaker := sc.Breaker
	breaker.IsFailure = renewal.Retryable
	breaker.OnStateChange = func(from, to resilience.State) {
		rt.logger.Warn(ctx, "store circuit changed state",
			observe.F("from", from.String()), observe.F("to", to.String()))
	}

	opts := []resilience.ExecutorOption{
		resilience.WithBulkhead(resilience.NewBulkhead(sc.Bulkhead)),
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(breaker)),
		resilience.WithRetry(rt.retry(ctx, cfg.Retry)),
		resilience.WithTimeout(sc.BatchTimeout),
	}
	if sc.RateLimit.Rate > 0 {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(sc.RateLimit)))
	}
	return resilience.NewExecutor(opts...)
}

// authenticators builds the HTTP auth chain from config. Both results are
// nil when auth is not configured.
func (rt *runtime) authenticators(ctx context.Context, ac config.AuthConfig) (auth.Authenticator, auth.Authorizer, error) {
	var authz auth.Authorizer
	if ac.RenewRole != "" {
		authz = auth.NewRoleAuthorizer(map[string]string{auth.ActionRenew: ac.RenewRole})
	}
	if !ac.Enabled() {
		return nil, authz, nil
	}

	var chain []auth.Authenticator
	if len(ac.APIKeys) > 0 {
		chain = append(chain, auth.NewAPIKeyAuthenticator(ac.APIKeyHeader, auth.NewMemoryAPIKeyStore(ac.APIKeys...)))
	}
	if ac.JWT.Secret != "" {
		jc := ac.JWT
		secretValue, err := rt.resolver.ResolveValue(ctx, jc.Secret)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve jwt secret: %w", err)
		}
		jc.Secret = secretValue
		chain = append(chain, auth.NewJWTAuthenticator(jc))
	}
	return auth.NewCompositeAuthenticator(chain...), authz, nil
}

// Close flushes telemetry and closes the secret providers.
func (rt *runtime) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
	defer cancel()

	var errs []error
	if rt.resolver != nil {
		errs = append(errs, rt.resolver.Close())
	}
	if rt.obs != nil {
		errs = append(errs, rt.obs.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
