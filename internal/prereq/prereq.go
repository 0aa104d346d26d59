// Package prereq checks the toolchain the virtual-env path depends on:
// a supported Python interpreter, git, pip and ensurepip.
package prereq

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"dl-setup/internal/config"
	"dl-setup/internal/logger"
	"dl-setup/internal/runner"

	"github.com/hashicorp/go-version"
)

// ErrGitNotInstalled is returned when `git --version` fails.
var ErrGitNotInstalled = errors.New("Git is not installed. Please install Git and rerun this script. " +
	"To install, see: https://git-scm.com/downloads")

// UnrecognizedExecutableError is returned for interpreter paths that do not end
// in python or python3. Commands are built from the normalized name, so any
// other spelling is refused rather than guessed.
type UnrecognizedExecutableError struct {
	Path string
}

func (e *UnrecognizedExecutableError) Error() string {
	return fmt.Sprintf("executable is %s and it doesn't end with neither 'python', 'python.exe', 'python3', nor 'python3.exe'. "+
		"To support this executable, update this tool", e.Path)
}

// MissingComponentError names the packaging component that could not be resolved.
type MissingComponentError struct {
	Component string
	Err       error
}

func (e *MissingComponentError) Error() string {
	return fmt.Sprintf("%s is not installed. Please install %s and run this tool again", e.Component, e.Component)
}

func (e *MissingComponentError) Unwrap() error { return e.Err }

// Validator runs the prerequisite checks. Exit and LookPath default to
// os.Exit and exec.LookPath; tests replace them.
type Validator struct {
	Runner   runner.Runner
	Python   config.Python
	Exit     func(code int)
	LookPath func(file string) (string, error)
}

// NewValidator returns a Validator wired to the real process.
func NewValidator(r runner.Runner, py config.Python) *Validator {
	return &Validator{Runner: r, Python: py, Exit: os.Exit, LookPath: exec.LookPath}
}

// FindPython returns the path of the first candidate interpreter on PATH.
func (v *Validator) FindPython() (string, error) {
	var lastErr error
	for _, candidate := range v.Python.Candidates {
		path, err := v.LookPath(candidate)
		if err == nil {
			logger.Debug("[DEBUG] Found Python interpreter %s at %s\n", candidate, path)
			return path, nil
		}
		lastErr = err
	}
	return "", &MissingComponentError{Component: "Python", Err: lastErr}
}

// PythonVersion asks the interpreter at exe for its version.
func (v *Validator) PythonVersion(exe string) (*version.Version, error) {
	out, err := v.Runner.Output(runner.Command(exe, "-c", "import platform; print(platform.python_version())").Checked())
	if err != nil {
		return nil, fmt.Errorf("failed to query Python version of %s: %w", exe, err)
	}
	ver, err := version.NewVersion(strings.TrimSpace(out))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Python version %q: %w", strings.TrimSpace(out), err)
	}
	return ver, nil
}

// ValidatePythonVersion is a hard gate: a version outside
// [MinVersion, MaxVersion) prints a message and terminates through Exit(1).
// It returns whether the version was accepted, which only matters when Exit
// does not terminate.
func (v *Validator) ValidatePythonVersion(ver *version.Version) bool {
	constraint, err := version.NewConstraint(fmt.Sprintf(">= %s, < %s", v.Python.MinVersion, v.Python.MaxVersion))
	if err != nil {
		logger.Error("[ERROR] Invalid supported Python range [%s, %s): %v\n", v.Python.MinVersion, v.Python.MaxVersion, err)
		v.Exit(1)
		return false
	}

	segments := ver.Segments()
	if constraint.Check(ver.Core()) {
		logger.Info("[INFO] Python version %d.%d.%d is installed. (the recommended version for this repository is %s)\n",
			segments[0], segments[1], segments[2], v.recommended())
		return true
	}

	logger.Error("[ERROR] The Python version installed is: %d.%d, and is not supported. "+
		"Please install the recommended version of Python and try again. "+
		"See: https://www.python.org/downloads/\n", segments[0], segments[1])
	v.Exit(1)
	return false
}

// recommended renders the supported range as e.g. "3.7.x-3.11.x".
func (v *Validator) recommended() string {
	lo, err1 := version.NewVersion(v.Python.MinVersion)
	hi, err2 := version.NewVersion(v.Python.MaxVersion)
	if err1 != nil || err2 != nil {
		return v.Python.MinVersion + "-" + v.Python.MaxVersion
	}
	l, h := lo.Segments(), hi.Segments()
	if h[1] > 0 {
		h[1]--
	} else {
		h[0]--
	}
	return fmt.Sprintf("%d.%d.x-%d.%d.x", l[0], l[1], h[0], h[1])
}

// IdentifyPythonExecutable normalizes an interpreter path to python or python3.
func IdentifyPythonExecutable(path string) (string, error) {
	logger.Info("[INFO] The python executable file is: %s\n", path)
	switch {
	case strings.HasSuffix(path, "python"), strings.HasSuffix(path, "python.exe"):
		return "python", nil
	case strings.HasSuffix(path, "python3"), strings.HasSuffix(path, "python3.exe"):
		return "python3", nil
	}
	return "", &UnrecognizedExecutableError{Path: path}
}

// IsGitInstalled runs `git --version` and prints the result.
func IsGitInstalled(r runner.Runner) error {
	out, err := r.Output(runner.Command("git", "--version").Checked())
	if err != nil {
		return fmt.Errorf("%w (%v)", ErrGitNotInstalled, err)
	}
	logger.Info("[INFO] Git is installed (version: %s)\n", strings.ReplaceAll(out, "\n", ""))
	return nil
}

// IsPipInstalled resolves pip through the interpreter.
func IsPipInstalled(r runner.Runner, exe string) error {
	out, err := r.Output(runner.Command(exe, "-m", "pip", "--version").Checked())
	if err != nil {
		return &MissingComponentError{Component: "pip", Err: err}
	}
	// "pip 24.0 from /usr/lib/python3/dist-packages/pip (python 3.11)"
	pipVersion := strings.TrimSpace(out)
	if fields := strings.Fields(pipVersion); len(fields) > 1 && fields[0] == "pip" {
		pipVersion = fields[1]
	}
	logger.Info("[INFO] pip is installed (version: %s)\n", pipVersion)
	return nil
}

// IsEnsurepipInstalled resolves ensurepip through the interpreter.
func IsEnsurepipInstalled(r runner.Runner, exe string) error {
	out, err := r.Output(runner.Command(exe, "-c", "import ensurepip; print(ensurepip.version())").Checked())
	if err != nil {
		return &MissingComponentError{Component: "ensurepip", Err: err}
	}
	logger.Info("[INFO] ensurepip is installed (version: %s)\n", strings.TrimSpace(out))
	return nil
}

// Run performs every check in order and returns the normalized executable
// name used to build the venv commands.
func (v *Validator) Run() (string, error) {
	path, err := v.FindPython()
	if err != nil {
		return "", err
	}
	ver, err := v.PythonVersion(path)
	if err != nil {
		return "", err
	}
	if !v.ValidatePythonVersion(ver) {
		return "", fmt.Errorf("python %s is outside the supported range", ver)
	}
	executable, err := IdentifyPythonExecutable(path)
	if err != nil {
		return "", err
	}
	if err := IsGitInstalled(v.Runner); err != nil {
		return "", err
	}
	if err := IsPipInstalled(v.Runner, executable); err != nil {
		return "", err
	}
	if err := IsEnsurepipInstalled(v.Runner, executable); err != nil {
		return "", err
	}
	return executable, nil
}
