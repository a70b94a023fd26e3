package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/CTAG07/Confluxer/pkg/confluxer"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Generate a batch of words every time the word list changes",
		Long: `Generate a batch of words from the word list, then keep watching the file
and generate a fresh batch each time it is saved. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.config.Model != "" {
				return errors.New("watch works on a word list file, not a saved model")
			}
			ctx := cmd.Context()

			c, err := confluxer.New(a.config.Generator, a.options()...)
			if err != nil {
				return err
			}
			if err = generateBatch(cmd, c); err != nil {
				return err
			}

			watcher, err := confluxer.NewWatcher(c,
				confluxer.WithDebounce(debounce),
				confluxer.WithWatchLogger(a.logger),
			)
			if err != nil {
				return err
			}
			if err = watcher.Start(ctx); err != nil {
				return err
			}
			defer func(watcher *confluxer.Watcher) {
				_ = watcher.Stop()
			}(watcher)

			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-watcher.Reloads():
					if !ok {
						return nil
					}
					if ev.Err != nil {
						// The previous model is still active, keep waiting for a good save.
						continue
					}
					fmt.Fprintln(cmd.OutOrStdout())
					if err = generateBatch(cmd, c); err != nil {
						return err
					}
				}
			}
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", confluxer.DefaultDebounce, "Wait this long after the last change before reloading")
	return cmd
}

func generateBatch(cmd *cobra.Command, c *confluxer.Confluxer) error {
	words, err := c.Generate(cmd.Context())
	if err != nil {
		return err
	}
	return printWords(cmd, words)
}
