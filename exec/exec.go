// Package exec runs external commands with captured output and exit codes.
// Everything in this repository that shells out does so through the
// CommandRunner interface so that tests can substitute a fake.
package exec

import (
	"bytes"
	"context"
	"os"
	osexec "os/exec"

	"github.com/cockroachdb/errors"
)

// CommandResult holds the captured output of a finished command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Command describes a single external invocation.
type Command struct {
	Name string
	Args []string

	// Dir is the working directory for the command. Empty means the
	// current directory.
	Dir string

	// Env entries are appended to the inherited environment.
	Env []string
}

// CommandRunner executes external commands.
type CommandRunner interface {
	// Run executes the command and captures its output. If the command
	// runs but exits non-zero, the returned result carries the exit code
	// and captured stderr alongside a non-nil error. If the command
	// cannot be started at all (e.g. the binary is not in PATH), the
	// error satisfies IsNotFound.
	Run(ctx context.Context, cmd Command) (*CommandResult, error)
}

type commandRunner struct{}

// NewCommandRunner returns a CommandRunner backed by os/exec.
func NewCommandRunner() CommandRunner {
	return &commandRunner{}
}

func (r *commandRunner) Run(ctx context.Context, cmd Command) (*CommandResult, error) {
	c := osexec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir

	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()

	result := &CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *osexec.ExitError
	switch {
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()

		return result, errors.Wrapf(err, "%s exited with code %d", cmd.Name, result.ExitCode)
	case err != nil:
		return result, errors.Wrapf(err, "starting %s", cmd.Name)
	}

	return result, nil
}

// IsNotFound reports whether err means the command's binary could not be
// located in PATH.
func IsNotFound(err error) bool {
	return errors.Is(err, osexec.ErrNotFound)
}

// LookPath reports whether the named binary is available in PATH.
func LookPath(name string) error {
	if _, err := osexec.LookPath(name); err != nil {
		return errors.Wrapf(err, "required tool %q not found", name)
	}

	return nil
}
