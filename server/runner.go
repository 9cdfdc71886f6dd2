package server

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jonwraymond/ttlrenew/observe"
	"github.com/jonwraymond/ttlrenew/renewal"
	"github.com/jonwraymond/ttlrenew/resilience"
	"github.com/jonwraymond/ttlrenew/store"
)

// Runner runs resolved batches against one store.
type Runner struct {
	engine   *renewal.Engine
	manager  *store.Manager
	creds    store.Credentials
	executor *resilience.Executor
	exec     observe.ExecuteFunc
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithExecutor guards each batch with exec.
func WithExecutor(exec *resilience.Executor) RunnerOption {
	return func(r *Runner) {
		if exec != nil {
			r.executor = exec
		}
	}
}

// WithMiddleware records batch spans, metrics and log lines through mw.
func WithMiddleware(mw *observe.Middleware) RunnerOption {
	return func(r *Runner) {
		if mw != nil {
			r.exec = mw.Wrap(r.exec)
		}
	}
}

// NewRunner creates a runner. creds must already be resolved.
func NewRunner(engine *renewal.Engine, manager *store.Manager, creds store.Credentials, opts ...RunnerOption) *Runner {
	r := &Runner{
		engine:   engine,
		manager:  manager,
		creds:    creds,
		executor: resilience.NewExecutor(),
	}
	r.exec = r.execute
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Renew resolves batch and runs it. source labels the batch in telemetry
// ("cli", "http"). A batch without an ID is given one.
func (r *Runner) Renew(ctx context.Context, source string, batch *renewal.Batch) (*renewal.Result, error) {
	items, err := batch.Resolve()
	if err != nil {
		return nil, err
	}
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}

	meta := observe.BatchMeta{ID: batch.ID, Source: source, Items: len(items)}
	out, err := r.exec(ctx, meta, items)
	if err != nil {
		return nil, err
	}
	res, ok := out.(*renewal.Result)
	if !ok || res == nil {
		return nil, errors.New("server: batch produced no result")
	}
	return res, nil
}

func (r *Runner) execute(ctx context.Context, _ observe.BatchMeta, input any) (any, error) {
	items, _ := input.([]renewal.Item)
	var res *renewal.Result
	err := r.executor.Execute(ctx, func(ctx context.Context) error {
		var err error
		res, err = r.engine.Run(ctx, r.manager, r.creds, items)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
