package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"ripwatch/internal/config"
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
	cfgVal.Paths.Base = filepath.Join(base, "library")
	cfgVal.Paths.Temp = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Service.CheckInterval = 1
	cfgVal.Service.RetryDelay = 0
	cfgVal.API.Bind = "127.0.0.1:0"

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

// WithPrimaryDevice overrides the monitored optical drive path.
func WithPrimaryDevice(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Devices.Primary = path
	}
}

// WithOverwriteExisting toggles destination overwriting on the test config.
func WithOverwriteExisting(overwrite bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Detection.OverwriteExisting = overwrite
	}
}

// WithAmbiguousPolicy sets how unclassifiable discs are routed.
func WithAmbiguousPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Detection.AmbiguousPolicy = policy
	}
}

// WithAutoEject toggles post-session tray ejection.
func WithAutoEject(eject bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Detection.AutoEject = eject
	}
}

// WithRetryPolicy sets the extraction retry attempt budget and delay seconds.
func WithRetryPolicy(count, delaySeconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Service.RetryCount = count
		b.cfg.Service.RetryDelay = delaySeconds
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default ripwatch external
// binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"makemkvcon", "eject"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.Temp)
}
