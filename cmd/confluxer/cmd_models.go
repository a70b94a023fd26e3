package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newModelsCmd(a *app) *cobra.Command {
	var remove string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models saved in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if remove != "" {
				if err = store.RemoveModel(ctx, remove); err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed model %q\n", remove)
				return nil
			}

			infos, err := store.GetModelInfos(ctx)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(out, "No saved models.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tWORDS\tSOURCE")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Name, info.WordCount, info.SourcePath)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&remove, "remove", "", "Delete the saved model with this name instead of listing")
	return cmd
}
