package main

import (
	"fmt"

	"github.com/CTAG07/Confluxer/pkg/confluxer"
	"github.com/spf13/cobra"
)

func newSaveCmd(a *app) *cobra.Command {
	var prune int

	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Build a model from the word list and save it in the database",
		Long: `Build a model from the word list given by --file and store it in the
database under NAME, replacing any model already saved with that name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			file := a.config.Generator.File

			model, err := confluxer.LoadFile(file)
			if err != nil {
				return err
			}
			if prune > 0 {
				model = confluxer.Prune(model, prune)
			}

			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			if err = store.SaveModel(cmd.Context(), name, file, model); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved model %q (%d words) to %s\n", name, len(model.Words), a.config.DatabasePath)
			return nil
		},
	}

	cmd.Flags().IntVar(&prune, "prune", 0, "Drop links seen this many times or fewer before saving")
	return cmd
}
