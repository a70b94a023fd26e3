package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/Confluxer/pkg/confluxer"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		out   string
		name  string
		prune int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current model as JSON",
		Long: `Write the model selected by --file or --model as JSON, to stdout or to the
file given by --out. The file is replaced atomically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, model, err := a.loadModel(cmd.Context())
			if err != nil {
				return err
			}
			if prune > 0 {
				model = confluxer.Prune(model, prune)
			}
			if name == "" {
				name = a.config.Model
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
			}

			if out == "" {
				return confluxer.ExportModel(cmd.OutOrStdout(), name, model)
			}

			var buf bytes.Buffer
			if err = confluxer.ExportModel(&buf, name, model); err != nil {
				return err
			}
			if err = atomic.WriteFile(out, &buf); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			a.logger.Info("Model exported", "name", name, "path", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&name, "name", "", "Name recorded in the export (default: the model or file name)")
	cmd.Flags().IntVar(&prune, "prune", 0, "Drop links seen this many times or fewer before exporting")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Save a JSON model export in the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			exported, model, err := readExport(path)
			if err != nil {
				return err
			}
			if name == "" {
				name = exported
			}
			if name == "" {
				return fmt.Errorf("%s has no model name, use --name", path)
			}

			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			if err = store.SaveModel(cmd.Context(), name, path, model); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported model %q (%d words)\n", name, len(model.Words))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Save under this name instead of the one in the file")
	return cmd
}

func readExport(path string) (string, *confluxer.Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	return confluxer.ImportModel(file)
}
