package bench

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/buildbench/buildbench/exec"
	"github.com/buildbench/buildbench/toolchain"
)

// RunConfig holds parameters for benchmarking a single toolchain.
type RunConfig struct {
	// ProjectDir is the directory the build runs in.
	ProjectDir string

	// BuildCommand is the build driver, normally cargo. The toolchain
	// selector is injected as the first argument (`cargo +stable build`),
	// following the rustup convention.
	BuildCommand string

	// BuildArgs follow the toolchain selector, e.g. ["build"].
	BuildArgs []string

	// CleanArgs, when non-empty, are run through BuildCommand before
	// every timed build so each sample measures a full build. Empty
	// disables cleaning.
	CleanArgs []string

	// TargetDir is the build output directory whose size is measured
	// after the final iteration. Relative paths are resolved against
	// ProjectDir.
	TargetDir string

	// Iterations is the number of timed builds per toolchain. Values
	// below 1 are treated as 1.
	Iterations int

	// Timeout bounds each external invocation. Zero means no limit.
	Timeout time.Duration
}

// Runner executes timed builds for resolved toolchains, strictly one
// invocation at a time.
type Runner struct {
	exec   exec.CommandRunner
	logger *slog.Logger
}

// NewRunner creates a Runner that shells out through runner.
func NewRunner(runner exec.CommandRunner, logger *slog.Logger) *Runner {
	return &Runner{
		exec:   runner,
		logger: logger,
	}
}

// Run builds the project with the given toolchain and returns the timing
// measurements. A failed clean or build aborts with the captured stderr
// attached; no partial result is returned.
func (r *Runner) Run(
	ctx context.Context,
	tc *toolchain.Toolchain,
	cfg RunConfig,
) (*Result, error) {
	iterations := cfg.Iterations
	if iterations < 1 {
		iterations = 1
	}

	logger := r.logger.With(slog.String("toolchain", tc.Name))

	version := tc.Banner
	if tc.Version != nil {
		version = tc.Version.String()
	}

	result := &Result{
		Toolchain: tc.Name,
		Version:   version,
		SamplesMs: make([]int64, 0, iterations),
	}

	for i := 0; i < iterations; i++ {
		if len(cfg.CleanArgs) > 0 {
			if err := r.invoke(ctx, tc, cfg, cfg.CleanArgs); err != nil {
				return nil, errors.Wrapf(err, "clean with %s", tc.Name)
			}
		}

		logger.Info("starting build",
			slog.String("command", cfg.BuildCommand),
			slog.Int("iteration", i+1),
			slog.Int("iterations", iterations),
		)

		start := time.Now()

		if err := r.invoke(ctx, tc, cfg, cfg.BuildArgs); err != nil {
			return nil, errors.Wrapf(err, "build with %s", tc.Name)
		}

		elapsed := time.Since(start)

		logger.Info("build finished",
			slog.Duration("wall_time", elapsed),
		)

		result.SamplesMs = append(result.SamplesMs, elapsed.Milliseconds())
	}

	result.FastestMs, result.MeanMs = summarize(result.SamplesMs)

	size, err := dirSize(resolveTarget(cfg))
	if err != nil {
		logger.Warn("failed to measure target dir size",
			slog.String("error", err.Error()),
		)
	}

	result.TargetSizeBytes = size

	return result, nil
}

// invoke runs the build driver with the toolchain selector prepended.
func (r *Runner) invoke(
	ctx context.Context,
	tc *toolchain.Toolchain,
	cfg RunConfig,
	args []string,
) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	full := make([]string, 0, len(args)+1)
	full = append(full, "+"+tc.Name)
	full = append(full, args...)

	result, err := r.exec.Run(ctx, exec.Command{
		Name: cfg.BuildCommand,
		Args: full,
		Dir:  cfg.ProjectDir,
	})
	if err != nil {
		if result != nil && result.Stderr != "" {
			return errors.Wrapf(err, "stderr: %s", strings.TrimSpace(result.Stderr))
		}

		return err
	}

	return nil
}

func summarize(samples []int64) (fastest, mean int64) {
	if len(samples) == 0 {
		return 0, 0
	}

	fastest = samples[0]

	var total int64
	for _, s := range samples {
		if s < fastest {
			fastest = s
		}

		total += s
	}

	return fastest, total / int64(len(samples))
}

func resolveTarget(cfg RunConfig) string {
	if filepath.IsAbs(cfg.TargetDir) {
		return cfg.TargetDir
	}

	return filepath.Join(cfg.ProjectDir, cfg.TargetDir)
}

func dirSize(path string) (uint64, error) {
	var size uint64

	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		size += uint64(info.Size())

		return nil
	})

	return size, err
}
