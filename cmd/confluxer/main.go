package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/CTAG07/Confluxer/pkg/confluxer"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// app carries the resolved configuration and logger shared by all commands.
type app struct {
	config *Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "confluxer",
		Short: "Generate pronounceable words from a word list",
		Long: `confluxer builds a letter-pair Markov model from a word list and uses it
to invent new words that sound like they belong to the same language.

The word list is plain text: any number of words per line, separated by
whitespace, with '#' starting a comment that runs to the end of the line.

Examples:
  confluxer                                  # 5 words from barsoom.txt
  confluxer -f names.txt -c 10 -m 4 -x 9     # 10 words of 4 to 9 letters
  confluxer save martian -f barsoom.txt      # store the model in confluxer.db
  confluxer --model martian --seed 42        # reproducible words from the store`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd)
		},
	}

	defaults := DefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringP("file", "f", defaults.Generator.File, "The word list file")
	flags.IntP("count", "c", defaults.Generator.Count, "How many words to generate")
	flags.IntP("min", "m", defaults.Generator.Min, "Minimum word length")
	flags.IntP("max", "x", defaults.Generator.Max, "Maximum word length")
	flags.Int("max-steps", defaults.Generator.MaxSteps, "Give up on a word after this many steps (0 for no limit)")
	flags.Uint64("seed", 0, "Seed for reproducible output (0 for a random seed)")
	flags.String("config", "", "Path to a JSON or YAML config file (created with defaults if missing)")
	flags.String("log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	flags.String("db", defaults.DatabasePath, "SQLite database holding saved models")
	flags.String("model", "", "Generate from this saved model instead of the word list file")

	rootCmd.AddCommand(
		newSaveCmd(a),
		newModelsCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newStatsCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

// load resolves the configuration: defaults, then the config file, then the
// environment, then any flags given on the command line.
func (a *app) load(cmd *cobra.Command) error {
	config := DefaultConfig()

	flags := cmd.Flags()
	if path, _ := flags.GetString("config"); path != "" {
		var err error
		if config, err = LoadConfig(path); err != nil {
			return err
		}
	}
	if err := ApplyEnv(config); err != nil {
		return err
	}
	applyFlags(flags, config)

	a.config = config
	a.logger = newLogger(cmd.ErrOrStderr(), config.LogLevel)
	return nil
}

// applyFlags copies explicitly set flags into config.
func applyFlags(flags *pflag.FlagSet, config *Config) {
	if flags.Changed("file") {
		config.Generator.File, _ = flags.GetString("file")
	}
	if flags.Changed("count") {
		config.Generator.Count, _ = flags.GetInt("count")
	}
	if flags.Changed("min") {
		config.Generator.Min, _ = flags.GetInt("min")
	}
	if flags.Changed("max") {
		config.Generator.Max, _ = flags.GetInt("max")
	}
	if flags.Changed("max-steps") {
		config.Generator.MaxSteps, _ = flags.GetInt("max-steps")
	}
	if flags.Changed("seed") {
		config.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("log-level") {
		config.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("db") {
		config.DatabasePath, _ = flags.GetString("db")
	}
	if flags.Changed("model") {
		config.Model, _ = flags.GetString("model")
	}
}

// openStore opens the model database and returns a Store along with a
// function that releases both.
func (a *app) openStore() (*confluxer.Store, func(), error) {
	db, err := initDB(a.config.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = confluxer.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to set up schema: %w", err)
	}
	store, err := confluxer.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to prepare store: %w", err)
	}
	store.SetLogger(a.logger)

	return store, func() {
		store.Close()
		if err := db.Close(); err != nil {
			a.logger.Error("Failed to close database", "error", err)
		}
	}, nil
}

// loadModel returns the configured model: the saved model named by --model
// if set, otherwise the one built from the word list file. The returned
// source describes where the model came from.
func (a *app) loadModel(ctx context.Context) (string, *confluxer.Model, error) {
	if a.config.Model == "" {
		model, err := confluxer.LoadFile(a.config.Generator.File)
		if err != nil {
			return "", nil, err
		}
		return a.config.Generator.File, model, nil
	}

	store, closeStore, err := a.openStore()
	if err != nil {
		return "", nil, err
	}
	defer closeStore()

	info, err := store.GetModelInfo(ctx, a.config.Model)
	if err != nil {
		return "", nil, err
	}
	model, err := store.LoadModel(ctx, a.config.Model)
	if err != nil {
		return "", nil, err
	}
	source := info.SourcePath
	if source == "" {
		source = info.Name
	}
	return source, model, nil
}

func (a *app) options() []confluxer.Option {
	opts := []confluxer.Option{confluxer.WithLogger(a.logger)}
	if a.config.Seed != 0 {
		opts = append(opts, confluxer.WithSource(rand.New(rand.NewPCG(a.config.Seed, a.config.Seed))))
	}
	return opts
}

// newConfluxer builds a Confluxer over the configured model.
func (a *app) newConfluxer(ctx context.Context) (*confluxer.Confluxer, error) {
	if a.config.Model == "" {
		return confluxer.New(a.config.Generator, a.options()...)
	}

	source, model, err := a.loadModel(ctx)
	if err != nil {
		return nil, err
	}
	cfg := a.config.Generator
	cfg.File = source
	return confluxer.NewWithModel(cfg, model, a.options()...)
}

func (a *app) runGenerate(cmd *cobra.Command) error {
	c, err := a.newConfluxer(cmd.Context())
	if err != nil {
		return err
	}
	words, err := c.Generate(cmd.Context())
	if err != nil {
		return err
	}
	return printWords(cmd, words)
}

func printWords(cmd *cobra.Command, words []string) error {
	out := cmd.OutOrStdout()
	for _, word := range words {
		if _, err := fmt.Fprintln(out, word); err != nil {
			return err
		}
	}
	return nil
}
