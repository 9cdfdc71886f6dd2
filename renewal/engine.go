package renewal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/ttlrenew/observe"
	"github.com/jonwraymond/ttlrenew/store"
)

// Engine evaluates batches of keys. It holds no per-batch state and is safe
// for concurrent use; each batch must use its own connection.
type Engine struct {
	logger  observe.Logger
	metrics observe.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l observe.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the engine's per-key metrics sink.
func WithMetrics(m observe.Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:  observe.NopLogger(),
		metrics: observe.NopMetrics(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run acquires a connection with creds, processes items over it and
// releases it on every exit path.
func (e *Engine) Run(ctx context.Context, mgr *store.Manager, creds store.Credentials, items []Item) (*Result, error) {
	var res *Result
	err := mgr.With(ctx, creds, func(lease *store.Lease) error {
		var err error
		res, err = e.ProcessBatch(ctx, lease.Conn(), items)
		return err
	})
	if err != nil {
		var rerr *Error
		if !errors.As(err, &rerr) {
			err = &Error{Kind: ErrConnection, Index: -1, Op: "acquire", Err: err}
		}
		return nil, err
	}
	return res, nil
}

// ProcessBatch evaluates items in order over conn. On error the partial
// result is discarded and nil is returned with an *Error.
func (e *Engine) ProcessBatch(ctx context.Context, conn store.Conn, items []Item) (*Result, error) {
	res := newResult(len(items))
	for i, it := range items {
		rec, renewed, err := e.processItem(ctx, conn, i, it)
		if err != nil {
			e.logger.Error(ctx, "renewal batch aborted",
				observe.F("item", i), observe.F("key", it.Key), observe.F("error", err))
			return nil, err
		}
		if renewed {
			res.Renewed = append(res.Renewed, rec)
		} else {
			res.NotRenewed = append(res.NotRenewed, rec)
		}
	}
	e.logger.Info(ctx, "renewal batch evaluated",
		observe.F("items", len(items)),
		observe.F("renewed", len(res.Renewed)),
		observe.F("not_renewed", len(res.NotRenewed)))
	return res, nil
}

func (e *Engine) processItem(ctx context.Context, conn store.Conn, index int, it Item) (Record, bool, error) {
	key, cfg := it.Key, it.Config
	if key == "" {
		return nil, false, configError(index, key, "validate", ErrEmptyKey)
	}
	if !store.IsReady(conn) {
		cause := store.ErrNotReady
		if conn != nil && conn.Err() != nil {
			cause = conn.Err()
		}
		return nil, false, &Error{Kind: ErrConnection, Index: index, Key: key, Op: "ready", Err: cause}
	}

	fail := func(op string, err error) error {
		kind := ErrStoreCommand
		if !store.IsReady(conn) {
			kind = ErrConnection
		}
		return &Error{Kind: kind, Index: index, Key: key, Op: op, Err: err}
	}

	exists, err := conn.Exists(ctx, key)
	if err != nil {
		return nil, false, fail("exists", err)
	}
	ttl := store.Missing
	if exists {
		if ttl, err = conn.TTL(ctx, key); err != nil {
			return nil, false, fail("ttl", err)
		}
	}
	state := Classify(exists, ttl)

	rec := newRecord(it.Payload)
	if cfg.IncludeValue {
		raw, ok, err := conn.Get(ctx, key)
		if err != nil {
			return nil, false, fail("get", err)
		}
		var value any
		if ok {
			value = raw
			if cfg.ParseJSON {
				var decoded any
				if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
					return nil, false, &Error{Kind: ErrValueDecode, Index: index, Key: key, Op: "decode", Err: err}
				}
				value = decoded
			}
		}
		rec[cfg.OutputProperty] = value
	}

	md := Record{FieldKey: key}
	renewed := false

	switch s := state.(type) {
	case Absent:
		md[FieldExists] = false
		md[FieldNeedsRenewal] = false
		md[FieldRenewed] = false

	case Permanent:
		md[FieldExists] = true
		md[FieldTTL] = store.NoExpiry
		md[FieldPermanent] = true
		md[FieldNeedsRenewal] = false
		md[FieldRenewed] = false

	case Expired:
		md[FieldExists] = true
		md[FieldTTL] = s.Remaining
		md[FieldExpired] = true
		md[FieldNeedsRenewal] = false
		md[FieldRenewed] = false

	case Expiring:
		threshold := cfg.ThresholdSeconds()
		needs := cfg.NeedsRenewal(s.Remaining)
		md[FieldExists] = true
		md[FieldTTL] = s.Remaining
		md[FieldTTLBefore] = s.Remaining
		md[FieldRenewalThreshold] = threshold
		md[FieldNeedsRenewal] = needs
		md[FieldRenewed] = false
		if !needs {
			break
		}

		ok, err := conn.Expire(ctx, key, cfg.RenewalTTL)
		if err != nil {
			return nil, false, fail("expire", err)
		}
		if !ok {
			// Gone between the TTL read and EXPIRE.
			md[FieldExists] = false
			md[FieldTTL] = store.Missing
			break
		}
		after, err := conn.TTL(ctx, key)
		if err != nil {
			return nil, false, fail("ttl", err)
		}
		md[FieldRenewed] = true
		md[FieldTTLAfter] = after
		md[FieldRenewalTTL] = cfg.RenewalTTL
		renewed = true

	default:
		return nil, false, configError(index, key, "classify", fmt.Errorf("unhandled key state %T", state))
	}

	if cfg.IncludeMetadata {
		for k, v := range md {
			rec[k] = v
		}
	}

	e.record(ctx, index, key, state, renewed)
	return rec, renewed, nil
}

func (e *Engine) record(ctx context.Context, index int, key string, state KeyState, renewed bool) {
	name := stateName(state)
	e.metrics.RecordKey(ctx, name, renewed)
	trace.SpanFromContext(ctx).AddEvent("renewal.key", trace.WithAttributes(
		attribute.Int("item", index),
		attribute.String("key.state", name),
		attribute.Bool("key.renewed", renewed),
	))
	e.logger.Debug(ctx, "key evaluated",
		observe.F("item", index),
		observe.F("key", key),
		observe.F("state", state.String()),
		observe.F("renewed", renewed))
}
