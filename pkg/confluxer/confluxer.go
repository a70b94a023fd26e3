package confluxer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
)

// DefaultFile is the word list used when no source path is configured.
const DefaultFile = "barsoom.txt"

// DefaultCount is the default number of words produced by Generate.
const DefaultCount = 5

// Config holds the settings of a Confluxer.
type Config struct {
	// File is the path of the word list the model is built from.
	File string `json:"file" yaml:"file" env:"FILE"`
	// Count is how many words Generate produces.
	Count int `json:"count" yaml:"count" env:"COUNT"`
	// Min is the minimum target word length.
	Min int `json:"min" yaml:"min" env:"MIN"`
	// Max is the maximum target word length.
	Max int `json:"max" yaml:"max" env:"MAX"`
	// MaxSteps caps the walk iterations per word. 0 or less disables the cap.
	MaxSteps int `json:"max_steps" yaml:"max_steps" env:"MAX_STEPS"`
}

// DefaultConfig returns a Config with the default values.
func DefaultConfig() Config {
	return Config{
		File:     DefaultFile,
		Count:    DefaultCount,
		Min:      DefaultMinLength,
		Max:      DefaultMaxLength,
		MaxSteps: DefaultMaxSteps,
	}
}

// Validate checks the config for values that can never produce output.
func (c Config) Validate() error {
	if c.File == "" {
		return fmt.Errorf("source file not specified")
	}
	if c.Count < 0 {
		return fmt.Errorf("count must not be negative, got %d", c.Count)
	}
	if c.Min < 1 || c.Min > c.Max {
		return fmt.Errorf("%w: min %d, max %d", ErrInvalidLength, c.Min, c.Max)
	}
	return nil
}

// snapshot is the unit published on every reload, so the model and the path
// it came from are always observed together.
type snapshot struct {
	path  string
	model *Model
}

// Confluxer owns a model built from a word list file and generates words from
// it with a fixed configuration. Reload swaps the model atomically, so words
// may be generated from other goroutines while a reload is in progress as long
// as the configured Source is safe for concurrent use.
type Confluxer struct {
	config  Config
	current atomic.Pointer[snapshot]
	source  Source
	logger  *slog.Logger
}

// Option configures a Confluxer.
type Option func(*Confluxer)

// WithSource sets the random source used for generation.
// Default: the process-wide math/rand/v2 generator.
func WithSource(src Source) Option {
	return func(c *Confluxer) {
		if src != nil {
			c.source = src
		}
	}
}

// WithLogger sets the logger. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Confluxer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New validates cfg, builds the model from cfg.File and returns a ready
// Confluxer. It fails if the word list cannot be read.
func New(cfg Config, opts ...Option) (*Confluxer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := newConfluxer(cfg, opts)
	if err := c.Reload(cfg.File); err != nil {
		return nil, err
	}
	return c, nil
}

// NewWithModel validates cfg and returns a Confluxer serving m, which is
// recorded as coming from cfg.File. Nothing is read from disk.
func NewWithModel(cfg Config, m *Model, opts ...Option) (*Confluxer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := newConfluxer(cfg, opts)
	c.UseModel(cfg.File, m)
	return c, nil
}

func newConfluxer(cfg Config, opts []Option) *Confluxer {
	c := &Confluxer{
		config: cfg,
		source: DefaultSource(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reload rebuilds the model from the word list at path and makes it current.
// If the file cannot be read the previous model stays in place and the error
// is returned.
func (c *Confluxer) Reload(path string) error {
	model, err := LoadFile(path)
	if err != nil {
		c.logger.Debug("Word list reload failed", "path", path, "error", err)
		return err
	}
	c.UseModel(path, model)

	c.logger.Info("Word list loaded",
		slog.String("path", path),
		slog.Int("words", len(model.Words)),
		slog.Int("starts", len(model.Starts)),
		slog.Int("fragments", len(model.Transitions)),
	)
	return nil
}

// Refresh reloads the current source file.
func (c *Confluxer) Refresh() error {
	return c.Reload(c.File())
}

// UseModel makes an already built model current, recording path as its
// source. It is used for models that come from a Store or an import.
func (c *Confluxer) UseModel(path string, m *Model) {
	c.current.Store(&snapshot{path: path, model: m})
}

// Model returns the current model.
func (c *Confluxer) Model() *Model {
	if s := c.current.Load(); s != nil {
		return s.model
	}
	return nil
}

// File returns the path of the current model's word list.
func (c *Confluxer) File() string {
	if s := c.current.Load(); s != nil {
		return s.path
	}
	return c.config.File
}

// Config returns the configuration the Confluxer was created with.
func (c *Confluxer) Config() Config {
	return c.config
}

func (c *Confluxer) generateOptions() []GenerateOption {
	return []GenerateOption{
		WithLength(c.config.Min, c.config.Max),
		WithMaxSteps(c.config.MaxSteps),
		WithRand(c.source),
		WithGenerateLogger(c.logger),
	}
}

// GenerateWord generates a single word from the current model.
func (c *Confluxer) GenerateWord(ctx context.Context) (string, error) {
	return GenerateWord(ctx, c.Model(), c.generateOptions()...)
}

// Generate generates Config.Count words from the current model. The model is
// read once, so a concurrent reload never mixes two models in one batch.
func (c *Confluxer) Generate(ctx context.Context) ([]string, error) {
	words, err := GenerateWords(ctx, c.Model(), c.config.Count, c.generateOptions()...)
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "Words generated",
		slog.String("path", c.File()),
		slog.Int("count", len(words)),
	)
	return words, nil
}
