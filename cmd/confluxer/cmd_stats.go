package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/CTAG07/Confluxer/pkg/confluxer"
	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show statistics for the current model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, model, err := a.loadModel(cmd.Context())
			if err != nil {
				return err
			}
			stats := confluxer.Stats(model)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 1, ' ', 0)
			fmt.Fprintf(tw, "source:\t%s\n", source)
			fmt.Fprintf(tw, "words:\t%d\n", stats.Words)
			fmt.Fprintf(tw, "starts:\t%d\n", stats.Starts)
			fmt.Fprintf(tw, "fragments:\t%d\n", stats.Fragments)
			fmt.Fprintf(tw, "transitions:\t%d\n", stats.Transitions)
			fmt.Fprintf(tw, "dead ends:\t%d\n", stats.DeadEnds)
			return tw.Flush()
		},
	}
}
