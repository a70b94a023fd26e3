package confluxer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"unicode"
)

var (
	// ErrEmptyModel is returned when a model has no start fragments, which
	// happens when its corpus held no word of two or more characters.
	ErrEmptyModel = errors.New("model has no start fragments")
	// ErrGenerationExhausted is returned when a walk keeps running into dead
	// ends and exceeds its step limit without reaching the target length.
	ErrGenerationExhausted = errors.New("generation exhausted")
	// ErrInvalidLength is returned for a length range with min < 1 or min > max.
	ErrInvalidLength = errors.New("invalid word length range")
)

const (
	// DefaultMinLength is the default minimum target word length.
	DefaultMinLength = 3
	// DefaultMaxLength is the default maximum target word length.
	DefaultMaxLength = 8
	// DefaultMaxSteps is the default limit on walk iterations for one word.
	DefaultMaxSteps = 10000
)

// Source supplies the random choices made during generation. *rand.Rand from
// math/rand/v2 satisfies it.
type Source interface {
	// IntN returns a uniform integer in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// globalSource draws from the process-wide math/rand/v2 generator, which is
// randomly seeded and safe for concurrent use.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource returns the Source used when none is configured.
func DefaultSource() Source { return globalSource{} }

// generateOptions holds the settings for a single generation call.
type generateOptions struct {
	minLength int
	maxLength int
	maxSteps  int
	source    Source
	logger    *slog.Logger
}

// GenerateOption configures GenerateWord and GenerateWords.
type GenerateOption func(*generateOptions)

// WithLength sets the inclusive range the target word length is drawn from.
// Default: 3 to 8.
func WithLength(min, max int) GenerateOption {
	return func(o *generateOptions) {
		o.minLength = min
		o.maxLength = max
	}
}

// WithMaxSteps limits how many walk iterations a single word may take before
// ErrGenerationExhausted is returned. A value of 0 or less removes the limit.
// Default: 10000.
func WithMaxSteps(n int) GenerateOption {
	return func(o *generateOptions) { o.maxSteps = n }
}

// WithRand sets the random source. Default: the process-wide generator.
func WithRand(src Source) GenerateOption {
	return func(o *generateOptions) {
		if src != nil {
			o.source = src
		}
	}
}

// WithGenerateLogger sets the logger used for debug output about backtracking.
func WithGenerateLogger(logger *slog.Logger) GenerateOption {
	return func(o *generateOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newGenerateOptions(opts []GenerateOption) *generateOptions {
	options := &generateOptions{
		minLength: DefaultMinLength,
		maxLength: DefaultMaxLength,
		maxSteps:  DefaultMaxSteps,
		source:    DefaultSource(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// GenerateWord synthesizes one word from m. The result is at least as long as
// the chosen target length (it can overshoot by one), starts with an upper
// case letter and is lower case after that.
func GenerateWord(ctx context.Context, m *Model, opts ...GenerateOption) (string, error) {
	return generateWord(ctx, m, newGenerateOptions(opts))
}

// GenerateWords synthesizes n words from m. Each word is generated
// independently; if any of them fails no words are returned.
func GenerateWords(ctx context.Context, m *Model, n int, opts ...GenerateOption) ([]string, error) {
	options := newGenerateOptions(opts)
	words := make([]string, 0, max(n, 0))
	for i := 0; i < n; i++ {
		word, err := generateWord(ctx, m, options)
		if err != nil {
			return nil, fmt.Errorf("word %d of %d: %w", i+1, n, err)
		}
		words = append(words, word)
	}
	return words, nil
}

// generateWord contains the main walk loop.
func generateWord(ctx context.Context, m *Model, options *generateOptions) (string, error) {
	if options.minLength < 1 || options.minLength > options.maxLength {
		return "", fmt.Errorf("%w: min %d, max %d", ErrInvalidLength, options.minLength, options.maxLength)
	}
	if m.Empty() {
		return "", ErrEmptyModel
	}

	rng := options.source
	target := options.minLength + rng.IntN(options.maxLength-options.minLength+1)
	word := []rune(m.Starts[rng.IntN(len(m.Starts))])

	var steps, backtracks, reseeds int
	for len(word) < target {
		if options.maxSteps > 0 && steps >= options.maxSteps {
			options.logger.DebugContext(ctx, "Generation exhausted",
				slog.Int("target_length", target),
				slog.Int("steps", steps),
				slog.Int("backtracks", backtracks),
				slog.Int("reseeds", reseeds),
			)
			return "", fmt.Errorf("%w after %d steps (target length %d)", ErrGenerationExhausted, steps, target)
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		steps++

		key := string(word[len(word)-FragmentLength:])
		if next := m.Transitions[key]; len(next) > 0 {
			choice := []rune(next[rng.IntN(len(next))])
			word = append(word, choice[len(choice)-1])
			continue
		}

		// Dead end: drop the last fragment and try again from there.
		backtracks++
		word = word[:max(len(word)-FragmentLength, 0)]
		if len(word) < FragmentLength {
			reseeds++
			word = []rune(m.Starts[rng.IntN(len(m.Starts))])
		}
	}

	if backtracks > 0 {
		options.logger.DebugContext(ctx, "Generation needed backtracking",
			slog.Int("target_length", target),
			slog.Int("steps", steps),
			slog.Int("backtracks", backtracks),
			slog.Int("reseeds", reseeds),
		)
	}

	return titleCase(word), nil
}

// titleCase upper-cases the first rune and lower-cases the rest.
func titleCase(word []rune) string {
	if len(word) == 0 {
		return ""
	}
	var builder strings.Builder
	builder.Grow(len(word))
	builder.WriteRune(unicode.ToUpper(word[0]))
	builder.WriteString(strings.ToLower(string(word[1:])))
	return builder.String()
}
