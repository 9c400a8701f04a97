// Package main provides the CLI entry point for buildbench, a harness
// that times full builds of one project across compiler toolchains and
// reports the comparison.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/buildbench/buildbench/bench"
	"github.com/buildbench/buildbench/config"
	"github.com/buildbench/buildbench/exec"
	"github.com/buildbench/buildbench/report"
	"github.com/buildbench/buildbench/toolchain"
)

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "buildbench: invalid configuration:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))

	root := newRootCmd(logger, cfg)

	// A bare invocation performs the default comparison.
	if len(os.Args) == 1 {
		root.SetArgs([]string{"run"})
	}

	if err := root.Execute(); err != nil {
		logger.Error("run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "buildbench",
		Short: "Compare build times of one project across compiler toolchains",
		Long: `Buildbench runs the same full build through two or more compiler
toolchains (stable vs nightly by default), measures the wall-clock time of
each, and prints a comparison so build-time regressions between toolchain
versions are easy to demonstrate.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(logger, cfg))
	root.AddCommand(newToolchainsCmd(logger, cfg))

	return root
}

func newRunCmd(logger *slog.Logger, cfg *config.Config) *cobra.Command {
	var (
		outputJSON bool
		noClean    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build with each toolchain and report elapsed times",
		Long: `Resolve each configured toolchain, run a full build with each one
sequentially, and print the elapsed wall-clock time per toolchain. A failed
build or missing toolchain aborts the comparison.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noClean {
				cfg.CleanArgs = nil
			}

			return runComparison(cmd.Context(), logger, cfg, outputJSON)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&cfg.Toolchains, "toolchains", cfg.Toolchains,
		"Toolchains to compare, in order (e.g. stable,nightly)")
	flags.StringVar(&cfg.ProjectDir, "project-dir", cfg.ProjectDir,
		"Directory of the project to build")
	flags.StringVar(&cfg.BuildCommand, "build-command", cfg.BuildCommand,
		"Build driver binary")
	flags.StringSliceVar(&cfg.BuildArgs, "build-args", cfg.BuildArgs,
		"Arguments passed to the build driver after the toolchain selector")
	flags.StringVar(&cfg.TargetDir, "target-dir", cfg.TargetDir,
		"Build output directory measured after the final iteration")
	flags.IntVar(&cfg.Iterations, "iterations", cfg.Iterations,
		"Timed builds per toolchain")
	flags.IntVar(&cfg.TimeoutMinutes, "timeout-minutes", cfg.TimeoutMinutes,
		"Timeout per build invocation in minutes (0 = none)")
	flags.BoolVar(&noClean, "no-clean", false,
		"Skip cleaning build artifacts before each timed build")
	flags.BoolVar(&outputJSON, "json", false,
		"Output results as JSON instead of a table")

	return cmd
}

func newToolchainsCmd(logger *slog.Logger, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "toolchains",
		Short: "Resolve and list the configured toolchains without building",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner := exec.NewCommandRunner()

			for _, name := range cfg.Toolchains {
				tc, err := toolchain.Resolve(
					cmd.Context(), runner, cfg.BuildCommand, name,
				)
				if err != nil {
					return err
				}

				logger.Debug("toolchain resolved",
					slog.String("toolchain", tc.Name),
				)

				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", tc.Name, tc.Banner)
			}

			return nil
		},
	}
}

func runComparison(
	ctx context.Context,
	logger *slog.Logger,
	cfg *config.Config,
	outputJSON bool,
) error {
	projectDir, err := filepath.Abs(cfg.ProjectDir)
	if err != nil {
		return errors.Wrap(err, "resolve project dir")
	}

	logger.InfoContext(ctx, "starting comparison",
		slog.Any("toolchains", cfg.Toolchains),
		slog.String("project_dir", projectDir),
		slog.Int("iterations", cfg.Iterations),
	)

	runner := exec.NewCommandRunner()

	// Step 1: resolve every toolchain up front so a missing one is
	// reported before any build time is spent.
	toolchains := make([]*toolchain.Toolchain, 0, len(cfg.Toolchains))

	for _, name := range cfg.Toolchains {
		tc, err := toolchain.Resolve(ctx, runner, cfg.BuildCommand, name)
		if err != nil {
			return err
		}

		logger.InfoContext(ctx, "toolchain resolved",
			slog.String("toolchain", tc.Name),
			slog.String("version", tc.Banner),
		)

		toolchains = append(toolchains, tc)
	}

	// Step 2: run the timed builds, strictly one toolchain at a time.
	benchRunner := bench.NewRunner(runner, logger)
	runCfg := bench.RunConfig{
		ProjectDir:   projectDir,
		BuildCommand: cfg.BuildCommand,
		BuildArgs:    cfg.BuildArgs,
		CleanArgs:    cfg.CleanArgs,
		TargetDir:    cfg.TargetDir,
		Iterations:   cfg.Iterations,
		Timeout:      cfg.Timeout(),
	}

	results := make([]bench.Result, 0, len(toolchains))

	for _, tc := range toolchains {
		result, err := benchRunner.Run(ctx, tc, runCfg)
		if err != nil {
			return err
		}

		results = append(results, *result)
	}

	// Step 3: report.
	if outputJSON {
		if err := report.GenerateJSON(os.Stdout, results); err != nil {
			return errors.Wrap(err, "generate JSON report")
		}
	} else {
		if err := report.Generate(os.Stdout, results); err != nil {
			return errors.Wrap(err, "generate report")
		}
	}

	logger.InfoContext(ctx, "comparison complete")

	return nil
}
