package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/ttlrenew/health"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Connect to the store, ping it and report readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			rt, err := a.newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := rt.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			res := health.NewStoreChecker(rt.manager, rt.creds, 0).Check(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%vms)\n", res.Status, res.Message, res.Details["latency_ms"])
			if !res.Status.Ready() {
				return fmt.Errorf("store %s is not ready: %w", rt.creds.Addr(), res.Error)
			}
			return nil
		},
	}
}
