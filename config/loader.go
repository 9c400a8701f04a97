package config

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if BUILDBENCH_CONFIG is set
//  3. env (prefix BUILDBENCH_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("BUILDBENCH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "load config file %s", path)
		}
	}

	// Environment variables: BUILDBENCH_PROJECT_DIR, BUILDBENCH_ITERATIONS,
	// ... mapped to flat keys matching the koanf struct tags.
	envProvider := env.Provider("BUILDBENCH_", ".", func(s string) string {
		s = strings.ToLower(s)

		return strings.TrimPrefix(s, "buildbench_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.Wrap(err, "load env config")
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Toolchains) == 0 {
		return errors.New("at least one toolchain must be configured")
	}

	if c.BuildCommand == "" {
		return errors.New("build_command must not be empty")
	}

	if c.Iterations < 1 {
		return errors.New("iterations must be at least 1")
	}

	if c.TimeoutMinutes < 0 {
		return errors.New("timeout_minutes must not be negative")
	}

	return nil
}
