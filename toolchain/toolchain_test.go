package toolchain

import (
	"context"
	osexec "os/exec"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/buildbench/buildbench/exec"
)

// fakeRunner returns canned results keyed by the first argument.
type fakeRunner struct {
	stdout   string
	stderr   string
	exitCode int
	notFound bool
	lastCmd  exec.Command
}

func (f *fakeRunner) Run(_ context.Context, cmd exec.Command) (*exec.CommandResult, error) {
	f.lastCmd = cmd

	if f.notFound {
		return &exec.CommandResult{}, errors.Wrapf(osexec.ErrNotFound, "starting %s", cmd.Name)
	}

	result := &exec.CommandResult{
		Stdout:   f.stdout,
		Stderr:   f.stderr,
		ExitCode: f.exitCode,
	}

	if f.exitCode != 0 {
		return result, errors.Newf("%s exited with code %d", cmd.Name, f.exitCode)
	}

	return result, nil
}

func TestResolveStable(t *testing.T) {
	runner := &fakeRunner{
		stdout: "cargo 1.46.0 (149022b1d 2020-07-17)\n",
	}

	tc, err := Resolve(context.Background(), runner, "cargo", "stable")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if tc.Name != "stable" {
		t.Errorf("name = %q, want stable", tc.Name)
	}
	if tc.Banner != "cargo 1.46.0 (149022b1d 2020-07-17)" {
		t.Errorf("banner = %q", tc.Banner)
	}
	if tc.Version == nil || tc.Version.String() != "1.46.0" {
		t.Errorf("version = %v, want 1.46.0", tc.Version)
	}

	want := []string{"+stable", "--version"}
	if len(runner.lastCmd.Args) != 2 ||
		runner.lastCmd.Args[0] != want[0] ||
		runner.lastCmd.Args[1] != want[1] {
		t.Errorf("args = %v, want %v", runner.lastCmd.Args, want)
	}
}

func TestResolveNightlyBanner(t *testing.T) {
	runner := &fakeRunner{
		stdout: "cargo 1.47.0-nightly (51b66125b 2020-08-19)\n",
	}

	tc, err := Resolve(context.Background(), runner, "cargo", "nightly")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if tc.Version == nil {
		t.Fatal("expected parsed version for nightly banner")
	}
	if tc.Version.Prerelease() != "nightly" {
		t.Errorf("prerelease = %q, want nightly", tc.Version.Prerelease())
	}
	if tc.String() != "nightly (1.47.0-nightly)" {
		t.Errorf("String() = %q", tc.String())
	}
}

func TestResolveUnparseableBanner(t *testing.T) {
	runner := &fakeRunner{stdout: "mystery tool\n"}

	tc, err := Resolve(context.Background(), runner, "cargo", "stable")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if tc.Version != nil {
		t.Errorf("version = %v, want nil for unparseable banner", tc.Version)
	}
	if tc.String() != "stable" {
		t.Errorf("String() = %q, want stable", tc.String())
	}
}

func TestResolveNotInstalled(t *testing.T) {
	runner := &fakeRunner{
		stderr:   "error: toolchain 'beta-2020-07-10' is not installed\n",
		exitCode: 1,
	}

	_, err := Resolve(context.Background(), runner, "cargo", "beta-2020-07-10")
	if err == nil {
		t.Fatal("expected error for missing toolchain")
	}

	var notInstalled *NotInstalledError
	if !errors.As(err, &notInstalled) {
		t.Fatalf("expected NotInstalledError, got: %v", err)
	}

	if notInstalled.Name != "beta-2020-07-10" {
		t.Errorf("name = %q", notInstalled.Name)
	}
	if notInstalled.Stderr == "" {
		t.Error("expected captured stderr")
	}
}

func TestResolveToolMissing(t *testing.T) {
	runner := &fakeRunner{notFound: true}

	_, err := Resolve(context.Background(), runner, "cargo", "stable")
	if err == nil {
		t.Fatal("expected error when cargo is missing")
	}

	var notInstalled *NotInstalledError
	if errors.As(err, &notInstalled) {
		t.Error("missing driver binary should not be NotInstalledError")
	}
	if !exec.IsNotFound(err) {
		t.Errorf("expected not-found error, got: %v", err)
	}
}

func TestParseBannerVariants(t *testing.T) {
	tests := []struct {
		banner string
		want   string
	}{
		{"cargo 1.46.0 (149022b1d 2020-07-17)", "1.46.0"},
		{"cargo 1.47.0-nightly (51b66125b 2020-08-19)", "1.47.0-nightly"},
		{"rustc 1.45.2 (d3fb005a3 2020-07-31)", "1.45.2"},
		{"cargo", ""},
		{"", ""},
	}

	for _, tt := range tests {
		v := parseBanner(tt.banner)

		if tt.want == "" {
			if v != nil {
				t.Errorf("parseBanner(%q) = %v, want nil", tt.banner, v)
			}

			continue
		}

		if v == nil || v.String() != tt.want {
			t.Errorf("parseBanner(%q) = %v, want %s", tt.banner, v, tt.want)
		}
	}
}
