// Package platform identifies the host the setup runs on: operating system,
// CPU architecture, shell, and whether the process is translated by Rosetta.
//
// Process-wide inputs (GOOS, GOARCH, environment variables, the sysctl query)
// are read through Host and runner.Runner so tests can substitute them.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"dl-setup/internal/logger"
	"dl-setup/internal/runner"
)

// OSName is the canonical operating system identifier.
type OSName string

const (
	Windows OSName = "Windows"
	Linux   OSName = "Linux"
	Darwin  OSName = "Darwin"
)

// Arch is the canonical machine architecture, spelled the way the OS reports it.
type Arch string

const (
	X86_64  Arch = "x86_64"
	AMD64   Arch = "AMD64"
	ARM64   Arch = "arm64"
	ARM64E  Arch = "arm64e"
	AArch64 Arch = "aarch64"
)

// Info is the result of probing the host. It is produced once and passed by value.
type Info struct {
	OS      OSName
	Arch    Arch
	Shell   string
	Rosetta bool
}

// Host exposes the process-wide values the prober reads.
type Host interface {
	GOOS() string
	GOARCH() string
	LookupEnv(key string) (string, bool)
}

// OSHost is the Host of the running process.
type OSHost struct{}

func (OSHost) GOOS() string                        { return runtime.GOOS }
func (OSHost) GOARCH() string                      { return runtime.GOARCH }
func (OSHost) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }

// MissingEnvError is returned when the shell variable for the OS is unset.
type MissingEnvError struct {
	Key string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("environment variable %s is not set", e.Key)
}

// IdentifyOperatingSystem returns the canonical OS name.
func IdentifyOperatingSystem(h Host) OSName {
	switch goos := h.GOOS(); goos {
	case "windows":
		return Windows
	case "linux":
		return Linux
	case "darwin":
		return Darwin
	default:
		if goos == "" {
			return ""
		}
		return OSName(strings.ToUpper(goos[:1]) + goos[1:])
	}
}

// IdentifyProcessorPlatform returns the machine string the host OS would report
// for the architecture the process runs as.
func IdentifyProcessorPlatform(h Host) Arch {
	osName := IdentifyOperatingSystem(h)
	switch goarch := h.GOARCH(); goarch {
	case "amd64":
		if osName == Windows {
			return AMD64
		}
		return X86_64
	case "arm64":
		switch osName {
		case Linux:
			return AArch64
		case Windows:
			return "ARM64"
		}
		return ARM64
	case "386":
		if osName == Windows {
			return "x86"
		}
		return "i686"
	default:
		return Arch(goarch)
	}
}

// IdentifyShell reads SHELL on POSIX systems and COMSPEC on Windows.
func IdentifyShell(h Host, osName OSName) (string, error) {
	key := "SHELL"
	if osName == Windows {
		key = "COMSPEC"
	}
	shell, ok := h.LookupEnv(key)
	if !ok {
		return "", &MissingEnvError{Key: key}
	}
	logger.Info("[INFO] Shell: %s\n", shell)
	return shell, nil
}

// IdentifyRosetta reports whether an x86_64 process on macOS is being
// translated. Any failure to query or parse the flag counts as not translated.
func IdentifyRosetta(r runner.Runner, osName OSName, arch Arch) bool {
	if osName != Darwin || arch != X86_64 {
		return false
	}
	out, err := r.Output(runner.Command("sysctl", "-in", "sysctl.proc_translated"))
	if err != nil {
		logger.Debug("[DEBUG] sysctl.proc_translated query failed: %v\n", err)
		return false
	}
	translated, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		logger.Debug("[DEBUG] sysctl.proc_translated returned %q\n", out)
		return false
	}
	return translated == 1
}

// Detect runs every probe once.
func Detect(h Host, r runner.Runner) (Info, error) {
	info := Info{
		OS:   IdentifyOperatingSystem(h),
		Arch: IdentifyProcessorPlatform(h),
	}
	shell, err := IdentifyShell(h, info.OS)
	if err != nil {
		return Info{}, err
	}
	info.Shell = shell
	info.Rosetta = IdentifyRosetta(r, info.OS, info.Arch)
	return info, nil
}

// ShellName reduces a shell path to a short name: zsh, bash, or the
// lower-cased base name without extension (cmd, powershell, fish, ...).
func ShellName(shell string) string {
	switch {
	case strings.Contains(shell, "zsh"):
		return "zsh"
	case strings.Contains(shell, "bash"):
		return "bash"
	}
	// Windows paths use backslashes even when we are not on Windows.
	base := filepath.Base(strings.ReplaceAll(shell, `\`, "/"))
	return strings.ToLower(strings.TrimSuffix(strings.TrimSuffix(base, ".exe"), ".EXE"))
}
