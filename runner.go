package pyfeatures

import (
	"bytes"
	"errors"
	"os/exec"
)

// Runner executes an interpreter and captures what it printed.
//
// Run returns a non-nil error only when the process could not be started.
// A process that starts and exits with a non-zero status is reported through
// [Output.ExitCode] with a nil error.
type Runner interface {
	Run(name string, args ...string) (Output, error)
}

// RunnerFunc adapts a function to the [Runner] interface.
type RunnerFunc func(name string, args ...string) (Output, error)

// Run calls f(name, args...).
func (f RunnerFunc) Run(name string, args ...string) (Output, error) {
	return f(name, args...)
}

// ExecRunner runs interpreters as child processes of the current process.
type ExecRunner struct{}

// Run starts name with args and blocks until it exits.
func (ExecRunner) Run(name string, args ...string) (Output, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	if err != nil {
		return Output{}, err
	}
	return out, nil
}

// LookPath resolves name the same way Run does.
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
