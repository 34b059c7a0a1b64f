package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/edge-filter/internal/filter"
	"github.com/angeloszaimis/edge-filter/internal/upstream"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check METHOD PATH",
		Short: "Print what the filter would do with a request, without sending it",
		Example: `  edge-filter check GET /robots.txt
  edge-filter check GET /https://userstorage.mega.co.nz/dl/abc`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd.Flags(), nil)
			if err != nil {
				return err
			}

			f := newFilter(cfg)
			d := f.Decide(args[0], args[1])
			out := cmd.OutOrStdout()

			if d.Outcome == filter.OutcomeProxy {
				fmt.Fprintf(out, "outcome: %s\nallowed: %s\ntarget:  %s\nheaders: %v\n",
					d.Outcome, f.AllowedHost(), d.Target, upstream.ForwardedHeaders)
				return nil
			}

			fmt.Fprintf(out, "outcome: %s\nstatus:  %d\nbody:    %s\n",
				d.Outcome, d.Status, strconv.Quote(d.Body))
			return nil
		},
	}
}
