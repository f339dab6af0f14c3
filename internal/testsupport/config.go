package testsupport

import (
	"path/filepath"
	"testing"

	"timedtext/internal/config"
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
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ExportDir = filepath.Join(base, "exports")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithUnknownSpeaker overrides the label for paragraphs without a speaker.
func WithUnknownSpeaker(label string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Editor.UnknownSpeaker = label
	}
}

// WithBestEffortRatio overrides the alignment length ratio.
func WithBestEffortRatio(ratio float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Alignment.BestEffortRatio = ratio
	}
}

// WithDebounce sets the live follower debounce in milliseconds.
func WithDebounce(ms int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Live.DebounceMillis = ms
	}
}
