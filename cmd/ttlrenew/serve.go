package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/ttlrenew/health"
	"github.com/jonwraymond/ttlrenew/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve renewal batches over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := a.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := rt.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			sc := a.cfg.Server
			runner := server.NewRunner(rt.engine, rt.manager, rt.creds,
				server.WithExecutor(rt.serveExecutor(ctx, a.cfg)),
				server.WithMiddleware(rt.mw))

			agg := health.NewAggregator(0)
			agg.Register(health.NewStoreChecker(rt.manager, rt.creds, 0))

			authn, authz, err := rt.authenticators(ctx, a.cfg.Auth)
			if err != nil {
				return err
			}

			var metrics http.Handler
			if a.cfg.Observe.Metrics.Enabled && a.cfg.Observe.Metrics.Exporter == "prometheus" {
				metrics = promhttp.Handler()
			}

			srv, err := server.New(server.Options{
				Runner:        runner,
				Defaults:      a.cfg.Renewal,
				Health:        agg,
				Authenticator: authn,
				Authorizer:    authz,
				Metrics:       metrics,
				Logger:        rt.logger,
				MaxBodyBytes:  sc.MaxBodyBytes,
			})
			if err != nil {
				return err
			}
			return srv.Run(ctx, sc.Addr, sc.ShutdownTimeout)
		},
	}
}
