package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/ttlrenew/renewal"
	"github.com/jonwraymond/ttlrenew/resilience"
	"github.com/jonwraymond/ttlrenew/server"
)

func newRunCmd(a *app) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one renewal batch and print the result as JSON",
		Long: `Reads a batch document ({"defaults":{...},"items":[{"key":...}]}) from
--input, renews every key at or below its threshold and prints
{"renewed":[...],"not_renewed":[...]} to stdout. Nothing is printed when the
batch fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx := cmd.Context()

			in := cmd.InOrStdin()
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}
			batch, err := renewal.DecodeBatch(in, a.cfg.Renewal)
			if err != nil {
				return err
			}

			rt, err := a.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := rt.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			exec := resilience.NewExecutor(
				resilience.WithRetry(rt.retry(ctx, a.cfg.Retry)),
				resilience.WithTimeout(a.cfg.Server.BatchTimeout),
			)

			runner := server.NewRunner(rt.engine, rt.manager, rt.creds,
				server.WithExecutor(exec), server.WithMiddleware(rt.mw))
			res, err := runner.Renew(ctx, "cli", batch)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "batch JSON file, - for stdin")
	return cmd
}

func writeResult(w io.Writer, res *renewal.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
