// Package config defines the harness configuration and its loading.
//
// Layering order (low -> high): defaults, YAML file named by
// BUILDBENCH_CONFIG, then BUILDBENCH_* environment variables. CLI flags
// overlay on top of the loaded configuration in cmd/buildbench.
package config

import (
	"log/slog"
	"time"

	"github.com/buildbench/buildbench/toolchain"
)

// Config contains everything needed to run one comparison.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Toolchains are the rustup-style selectors compared, in order.
	Toolchains []string `koanf:"toolchains"`

	// ProjectDir is the directory containing the project to build.
	ProjectDir string `koanf:"project_dir"`

	// BuildCommand is the build driver binary.
	BuildCommand string `koanf:"build_command"`

	// BuildArgs follow the toolchain selector on the build invocation.
	BuildArgs []string `koanf:"build_args"`

	// CleanArgs, when non-empty, are run before every timed build.
	CleanArgs []string `koanf:"clean_args"`

	// TargetDir is the build output directory, resolved against
	// ProjectDir when relative.
	TargetDir string `koanf:"target_dir"`

	// Iterations is the number of timed builds per toolchain.
	Iterations int `koanf:"iterations"`

	// TimeoutMinutes bounds each external invocation. Zero disables the
	// limit.
	TimeoutMinutes int `koanf:"timeout_minutes"`
}

// New returns a Config with defaults reproducing the canonical
// stable-vs-nightly cargo comparison in the current directory.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Toolchains:     toolchain.DefaultChannels(),
		ProjectDir:     ".",
		BuildCommand:   "cargo",
		BuildArgs:      []string{"build"},
		CleanArgs:      []string{"clean"},
		TargetDir:      "target",
		Iterations:     1,
		TimeoutMinutes: 30,
	}
}

// Timeout returns the per-invocation timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMinutes) * time.Minute
}

// Level maps LogLevel onto a slog level, defaulting to info.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
