package confluxer

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// newTestConfluxer creates a Confluxer over a temp file holding corpus,
// generating words of exactly length characters.
func newTestConfluxer(t *testing.T, corpus string, length int) *Confluxer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.File = writeCorpus(t, corpus)
	cfg.Min, cfg.Max = length, length

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	expected := Config{File: "barsoom.txt", Count: 5, Min: 3, Max: 8, MaxSteps: 10000}
	if cfg != expected {
		t.Errorf("DefaultConfig() = %+v, want %+v", cfg, expected)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "No file", mutate: func(c *Config) { c.File = "" }},
		{name: "Negative count", mutate: func(c *Config) { c.Count = -1 }},
		{name: "Min above max", mutate: func(c *Config) { c.Min, c.Max = 9, 8 }},
		{name: "Zero min", mutate: func(c *Config) { c.Min = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error, got nil")
			}
		})
	}
}

func TestNewMissingFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.File = filepath.Join(t.TempDir(), "nope.txt")

	_, err := New(cfg)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestConfluxerGenerate(t *testing.T) {
	c := newTestConfluxer(t, "abcd", 4)
	ctx := context.Background()

	word, err := c.GenerateWord(ctx)
	if err != nil {
		t.Fatalf("GenerateWord() error = %v", err)
	}
	if word != "Abcd" {
		t.Errorf("GenerateWord() = %q, want %q", word, "Abcd")
	}

	words, err := c.Generate(ctx)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	expected := []string{"Abcd", "Abcd", "Abcd", "Abcd", "Abcd"}
	if !reflect.DeepEqual(words, expected) {
		t.Errorf("Generate() = %q, want %q", words, expected)
	}
}

func TestConfluxerEmptyModel(t *testing.T) {
	c := newTestConfluxer(t, "a b c # nothing long enough", 3)

	if _, err := c.GenerateWord(context.Background()); !errors.Is(err, ErrEmptyModel) {
		t.Errorf("expected ErrEmptyModel, got %v", err)
	}
}

func TestConfluxerReload(t *testing.T) {
	c := newTestConfluxer(t, "abcd", 4)
	ctx := context.Background()

	newPath := writeCorpus(t, "wxyz")
	if err := c.Reload(newPath); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if c.File() != newPath {
		t.Errorf("File() = %q, want %q", c.File(), newPath)
	}

	for i := 0; i < 20; i++ {
		word, err := c.GenerateWord(ctx)
		if err != nil {
			t.Fatalf("GenerateWord() error = %v", err)
		}
		if word != "Wxyz" {
			t.Fatalf("expected words from the new file only, got %q", word)
		}
	}
}

func TestConfluxerReloadFailureKeepsModel(t *testing.T) {
	c := newTestConfluxer(t, "abcd", 4)
	oldPath := c.File()
	oldModel := c.Model()

	err := c.Reload(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
	if c.File() != oldPath {
		t.Errorf("File() changed to %q after a failed reload", c.File())
	}
	if c.Model() != oldModel {
		t.Error("model changed after a failed reload")
	}
}

func TestConfluxerReloadFailureLeavesReportingToCaller(t *testing.T) {
	var logs bytes.Buffer
	cfg := DefaultConfig()
	cfg.File = writeCorpus(t, "abcd")
	c, err := New(cfg, WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo}))))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logs.Reset()

	if err = c.Reload(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected an error for a missing file, got nil")
	}
	if logs.Len() != 0 {
		t.Errorf("expected a failed reload to log nothing above debug, got %q", logs.String())
	}
}

func TestConfluxerRefresh(t *testing.T) {
	c := newTestConfluxer(t, "abcd", 4)

	if err := os.WriteFile(c.File(), []byte("mnop"), 0644); err != nil {
		t.Fatalf("failed to rewrite corpus: %v", err)
	}
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	word, err := c.GenerateWord(context.Background())
	if err != nil {
		t.Fatalf("GenerateWord() error = %v", err)
	}
	if word != "Mnop" {
		t.Errorf("GenerateWord() = %q, want %q", word, "Mnop")
	}
}

func TestConfluxerUseModel(t *testing.T) {
	c := newTestConfluxer(t, "abcd", 4)

	c.UseModel("stored:test", BuildModel([]string{"qrst"}))
	if c.File() != "stored:test" {
		t.Errorf("File() = %q, want %q", c.File(), "stored:test")
	}
	word, err := c.GenerateWord(context.Background())
	if err != nil {
		t.Fatalf("GenerateWord() error = %v", err)
	}
	if word != "Qrst" {
		t.Errorf("GenerateWord() = %q, want %q", word, "Qrst")
	}
}

func TestNewWithModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.File = "stored:names"
	cfg.Min, cfg.Max = 4, 4

	c, err := NewWithModel(cfg, BuildModel([]string{"abcd"}))
	if err != nil {
		t.Fatalf("NewWithModel() error = %v", err)
	}
	if c.File() != "stored:names" {
		t.Errorf("File() = %q, want %q", c.File(), "stored:names")
	}
	word, err := c.GenerateWord(context.Background())
	if err != nil {
		t.Fatalf("GenerateWord() error = %v", err)
	}
	if word != "Abcd" {
		t.Errorf("GenerateWord() = %q, want %q", word, "Abcd")
	}

	cfg.Min = 0
	if _, err = NewWithModel(cfg, BuildModel([]string{"abcd"})); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength, got %v", err)
	}
}
