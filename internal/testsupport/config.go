package testsupport

import (
	"path/filepath"
	"testing"

	"docfactory/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputDir = filepath.Join(base, "input")
	cfgVal.Paths.OriginalsDir = filepath.Join(base, "originals")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.ArchiveDir = filepath.Join(base, "archive")
	cfgVal.Paths.IndexDir = filepath.Join(base, "index")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Processing.SettleDelayMS = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	return builder.cfg
}

// WithWorkers sets the worker count on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Processing.Workers = workers
	}
}

// WithSimilarityThreshold overrides the duplicate similarity threshold.
func WithSimilarityThreshold(threshold float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Duplicates.SimilarityThreshold = threshold
	}
}

// WithAllowedExtensions replaces the ingestion extension allow-list.
func WithAllowedExtensions(exts ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Processing.AllowedExtensions = exts
	}
}

// WithMaxFileSizeMB overrides the maximum admitted file size.
func WithMaxFileSizeMB(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Processing.MaxFileSizeMB = size
	}
}

// WithRetry overrides the retry policy settings.
func WithRetry(attempts, initialBackoffMS, maxBackoffMS int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Retry.Attempts = attempts
		b.cfg.Retry.InitialBackoffMS = initialBackoffMS
		b.cfg.Retry.MaxBackoffMS = maxBackoffMS
	}
}
