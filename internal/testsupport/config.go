package testsupport

import (
	"path/filepath"
	"testing"

	"dutchlearn/internal/config"
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
	cfgVal.Paths.UploadDir = filepath.Join(base, "uploads")
	cfgVal.Paths.AudioDir = filepath.Join(base, "audio")
	cfgVal.Paths.ExportDir = filepath.Join(base, "exports")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.AssemblyAI.APIKey = "test"
	cfgVal.OpenAI.APIKey = "test"

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

// WithAssemblyAIKey sets the AssemblyAI API key on the test config.
func WithAssemblyAIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.AssemblyAI.APIKey = key
	}
}

// WithRemote points the sync section at the provided remote URL and token.
func WithRemote(url, token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.RemoteURL = url
		b.cfg.Sync.Token = token
	}
}

// WithMaxSentenceWords overrides the splitter word budget on the test config.
func WithMaxSentenceWords(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.MaxSentenceWords = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
