package installer

import (
	"os"
	"time"

	"dl-setup/internal/config"
	"dl-setup/internal/logger"
	"dl-setup/internal/platform"
	"dl-setup/internal/runner"
)

// PrereqChecker validates the toolchain and returns the normalized Python
// executable name (python or python3). *prereq.Validator implements it.
type PrereqChecker interface {
	Run() (string, error)
}

// Provisioner creates environments and installs dependencies into them.
// Every external tool goes through Runner; every command keeps its own Check
// flag, and Strict upgrades all of them to checked.
type Provisioner struct {
	Runner  runner.Runner
	Config  config.Config
	Info    platform.Info
	Home    string
	Prereqs PrereqChecker
	Strict  bool

	// Executable is the Python used to create venvs. Set by the prerequisite
	// checks; defaults to python3.
	Executable string
	// Wheelhouse is the extracted wheel directory passed to pip as
	// --find-links, or empty.
	Wheelhouse string

	Download func(url, destPath string) error
	Now      func() time.Time

	// ignored counts best-effort failures that run let through.
	ignored int
}

// New returns a Provisioner wired to HTTP downloads and the wall clock.
func New(r runner.Runner, cfg config.Config, info platform.Info, home string, prereqs PrereqChecker) *Provisioner {
	return &Provisioner{
		Runner:     r,
		Config:     cfg,
		Info:       info,
		Home:       home,
		Prereqs:    prereqs,
		Strict:     cfg.Strict,
		Executable: "python3",
		Download:   downloadFile,
		Now:        time.Now,
	}
}

// run executes c. A failure propagates if c is checked or the provisioner is
// strict; otherwise it is reported and ignored.
func (p *Provisioner) run(c runner.Cmd) error {
	err := p.Runner.Run(c)
	if err == nil {
		return nil
	}
	if c.Check || p.Strict {
		return err
	}
	p.ignored++
	logger.Warn("[WARN] Ignoring failed command (re-run with --strict to stop on it): %v\n", err)
	return nil
}

// pathExists reports whether anything exists at path.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
