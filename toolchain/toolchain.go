// Package toolchain resolves compiler toolchains before any timing runs.
// A toolchain is addressed the rustup way: a channel name (stable, beta,
// nightly), a pinned version (1.46.0), or a dated channel
// (beta-2020-07-10). Resolution confirms the toolchain is installed and
// captures its version banner so reports can name the exact compiler that
// was measured.
package toolchain

import (
	"context"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"

	"github.com/buildbench/buildbench/exec"
)

// Toolchain identifies one resolved compiler toolchain.
type Toolchain struct {
	// Name is the rustup-style selector, e.g. "stable" or "nightly".
	Name string

	// Banner is the full version line reported by the tool, e.g.
	// "cargo 1.47.0-nightly (51b66125b 2020-08-19)".
	Banner string

	// Version is the semantic version parsed out of Banner. Nil when the
	// banner did not contain a parseable version.
	Version *semver.Version
}

// String returns the selector plus the parsed version, if any.
func (t *Toolchain) String() string {
	if t.Version == nil {
		return t.Name
	}

	return t.Name + " (" + t.Version.String() + ")"
}

// NotInstalledError reports a toolchain that rustup does not have.
type NotInstalledError struct {
	Name   string
	Stderr string
}

func (e *NotInstalledError) Error() string {
	return "toolchain " + e.Name + " is not installed"
}

// DefaultChannels returns the channels compared when nothing else is
// configured.
func DefaultChannels() []string {
	return []string{"stable", "nightly"}
}

// Resolve checks that the named toolchain is installed by running
// `<tool> +<name> --version` and returns its identity. tool is the build
// driver binary, normally cargo.
func Resolve(
	ctx context.Context,
	runner exec.CommandRunner,
	tool, name string,
) (*Toolchain, error) {
	result, err := runner.Run(ctx, exec.Command{
		Name: tool,
		Args: []string{"+" + name, "--version"},
	})

	switch {
	case err != nil && exec.IsNotFound(err):
		return nil, errors.Wrapf(err, "resolve toolchain %s", name)
	case err != nil:
		// rustup reports unknown toolchains with a non-zero exit and an
		// explanation on stderr.
		return nil, errors.WithStack(&NotInstalledError{
			Name:   name,
			Stderr: strings.TrimSpace(result.Stderr),
		})
	}

	banner := strings.TrimSpace(result.Stdout)

	return &Toolchain{
		Name:    name,
		Banner:  banner,
		Version: parseBanner(banner),
	}, nil
}

// parseBanner extracts the version from lines like
// "cargo 1.46.0 (149022b1d 2020-07-17)" or
// "cargo 1.47.0-nightly (51b66125b 2020-08-19)".
func parseBanner(banner string) *semver.Version {
	fields := strings.Fields(banner)
	if len(fields) < 2 {
		return nil
	}

	v, err := semver.NewVersion(fields[1])
	if err != nil {
		return nil
	}

	return v
}
