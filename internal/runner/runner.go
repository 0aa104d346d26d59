// Package runner executes external tools as explicit argument vectors.
// No command line is ever assembled as a single string and handed to a shell.
package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"dl-setup/internal/logger"
)

// Cmd is one external process invocation.
type Cmd struct {
	Name string
	Args []string
	// Check marks invocations whose failure must always propagate. Unchecked
	// failures are best-effort and the caller decides whether to ignore them.
	Check bool
}

// Command is a shorthand for an unchecked Cmd.
func Command(name string, args ...string) Cmd {
	return Cmd{Name: name, Args: args}
}

// Checked returns a copy of c with Check set.
func (c Cmd) Checked() Cmd {
	c.Check = true
	return c
}

// String renders the command for logs only; it is never executed as text.
func (c Cmd) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner runs commands. Run streams the child's output to the terminal, Output
// captures and returns stdout.
type Runner interface {
	Run(c Cmd) error
	Output(c Cmd) (string, error)
}

// Error reports a command that could not start or exited non-zero.
type Error struct {
	Cmd    Cmd
	Output string
	Err    error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("command %q failed: %v\nOutput: %s", e.Cmd.String(), e.Err, e.Output)
	}
	return fmt.Sprintf("command %q failed: %v", e.Cmd.String(), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Exec is the Runner backed by os/exec.
type Exec struct {
	Stdout io.Writer // defaults to os.Stdout
	Stderr io.Writer // defaults to os.Stderr
}

// Run executes c and blocks until it exits.
func (e Exec) Run(c Cmd) error {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = e.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = e.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	logger.Debug("[DEBUG] Running command: %s\n", c.String())
	if err := cmd.Run(); err != nil {
		return &Error{Cmd: c, Err: err}
	}
	return nil
}

// Output executes c and returns its stdout. Stderr is kept out of the result
// so warnings cannot corrupt parsed values; on failure it lands in Error.Output.
func (e Exec) Output(c Cmd) (string, error) {
	cmd := exec.Command(c.Name, c.Args...)
	logger.Debug("[DEBUG] Running command: %s\n", c.String())
	out, err := cmd.Output()
	if err != nil {
		var stderr string
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr = string(exitErr.Stderr)
		}
		return string(out), &Error{Cmd: c, Output: stderr, Err: err}
	}
	return string(out), nil
}
