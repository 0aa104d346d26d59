package installer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dl-setup/internal/config"
	"dl-setup/internal/logger"
	"dl-setup/internal/platform"
	"dl-setup/internal/runner/runnertest"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	color.NoColor = true
	var buf bytes.Buffer
	prev := logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(prev) })
	return &buf
}

// fakePrereqs stands in for *prereq.Validator.
type fakePrereqs struct {
	executable string
	err        error
	calls      int
}

func (f *fakePrereqs) Run() (string, error) {
	f.calls++
	return f.executable, f.err
}

type fixture struct {
	p    *Provisioner
	r    *runnertest.Recorder
	home string
	out  *bytes.Buffer
}

// newFixture runs the test in a fresh working directory with a fresh home and
// the built-in tables.
func newFixture(t *testing.T, info platform.Info) fixture {
	t.Helper()
	out := captureOutput(t)
	t.Chdir(t.TempDir())
	home := t.TempDir()

	cfg, err := config.LoadConfig("", home)
	require.NoError(t, err)

	r := &runnertest.Recorder{}
	p := New(r, cfg, info, home, &fakePrereqs{executable: "python3"})
	p.Now = func() time.Time { return fixedNow }
	p.Download = func(url, dest string) error {
		return os.WriteFile(dest, []byte("#!/bin/bash\n"), 0644)
	}
	return fixture{p: p, r: r, home: home, out: out}
}

var linuxInfo = platform.Info{OS: platform.Linux, Arch: platform.X86_64, Shell: "/bin/bash"}

func TestCreateVenvIsIdempotent(t *testing.T) {
	f := newFixture(t, linuxInfo)
	p, r, out := f.p, f.r, f.out
	env := p.Config.Venv.Environments[0]

	require.NoError(t, p.CreateVenv(env))
	assert.Equal(t, []string{"python3 -m venv " + filepath.Join("venv", "pytorch_cpu")}, r.Commands())

	// Simulate what `python -m venv` leaves behind.
	require.NoError(t, os.MkdirAll(filepath.Join(env.Path, "bin"), 0755))
	before, err := os.ReadDir(env.Path)
	require.NoError(t, err)

	require.NoError(t, p.CreateVenv(env))
	assert.Len(t, r.Calls, 1, "second call must not run anything")
	after, err := os.ReadDir(env.Path)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
	assert.Contains(t, out.String(), "Virtual environment folder already exists")
}

func TestVenvCommandsPerOS(t *testing.T) {
	f := newFixture(t, linuxInfo)
	p, r := f.p, f.r
	env := config.Environment{Name: "pytorch_cpu", Path: filepath.Join("venv", "pytorch_cpu"), Requirements: "setup/requirements_pytorch_cpu.txt"}

	require.NoError(t, p.InstallPackages(env))
	require.NoError(t, p.InstallIPyKernel(env))

	p.Info = platform.Info{OS: platform.Windows, Arch: platform.AMD64, Shell: `C:\Windows\system32\cmd.exe`}
	require.NoError(t, p.InstallPackages(env))
	require.NoError(t, p.InstallIPyKernel(env))

	assert.Equal(t, []string{
		filepath.Join("venv", "pytorch_cpu", "bin", "pip") + " install -r setup/requirements_pytorch_cpu.txt",
		filepath.Join("venv", "pytorch_cpu", "bin", "python") + " -m ipykernel install --user --name=pytorch_cpu --display-name=pytorch_cpu",
		filepath.Join("venv", "pytorch_cpu", "Scripts", "pip") + " install -r setup/requirements_pytorch_cpu.txt",
		filepath.Join("venv", "pytorch_cpu", "Scripts", "python") + " -m ipykernel install --user --name=pytorch_cpu --display-name=pytorch_cpu",
	}, r.Commands())
}

func TestBestEffortAndStrict(t *testing.T) {
	f := newFixture(t, linuxInfo)
	p, r := f.p, f.r
	r.Fail(filepath.Join("venv", "pytorch_cpu", "bin", "pip"), errors.New("exit status 1"))
	env := p.Config.Venv.Environments[0]

	// Unchecked failures are ignored by default.
	assert.NoError(t, p.InstallPackages(env))

	p.Strict = true
	assert.Error(t, p.InstallPackages(env))
}

func TestCheckedCommandsAlwaysPropagate(t *testing.T) {
	f := newFixture(t, platform.Info{OS: platform.Darwin, Arch: platform.ARM64, Shell: "/bin/zsh"})
	p, r := f.p, f.r
	r.Fail("bash -c", errors.New("exit status 1"))
	require.False(t, p.Strict)

	assert.Error(t, p.CreateVenvMiniconda(p.Config.Miniconda.Environments[0]))
	assert.Error(t, p.InstallTensorflowDepsMiniconda(p.Config.Miniconda.Environments[0]))
	assert.Error(t, p.InstallRequirementsMiniconda(p.Config.Miniconda.Environments[0]))
}

func TestCondaCommandsKeepValuesOutOfScript(t *testing.T) {
	f := newFixture(t, platform.Info{OS: platform.Darwin, Arch: platform.ARM64, Shell: "/bin/zsh"})
	p, r, home := f.p, f.r, f.home
	env := config.Environment{Name: "odd name; rm -rf ~", PythonVersion: "3.10.10", Requirements: "reqs.txt"}

	require.NoError(t, p.CreateVenvMiniconda(env))
	require.NoError(t, p.InstallTensorflowDepsMiniconda(env))
	require.NoError(t, p.InstallRequirementsMiniconda(env))

	activate := filepath.Join(home, "miniconda", "bin", "activate")
	require.Len(t, r.Calls, 3)
	for _, c := range r.Calls {
		assert.Equal(t, "bash", c.Name)
		assert.True(t, c.Check)
		assert.Equal(t, activate, c.Args[3])
		assert.Equal(t, env.Name, c.Args[4])
		assert.NotContains(t, c.Args[1], env.Name)
	}
	assert.Equal(t, []string{"-c", `source "$1" && conda create -n "$2" python="$3" --yes`, "bash", activate, env.Name, "3.10.10"}, r.Calls[0].Args)
	assert.Equal(t, `source "$1" && conda activate "$2" && conda install -c apple tensorflow-deps --yes`, r.Calls[1].Args[1])
	assert.Equal(t, []string{"-c", `source "$1" && conda activate "$2" && python -m pip install -r "$3"`, "bash", activate, env.Name, "reqs.txt"}, r.Calls[2].Args)
}

func TestInstallMiniconda(t *testing.T) {
	f := newFixture(t, platform.Info{OS: platform.Darwin, Arch: platform.ARM64, Shell: "/bin/zsh"})
	p, r, home := f.p, f.r, f.home
	var downloaded string
	p.Download = func(url, dest string) error {
		downloaded = url
		return os.WriteFile(dest, []byte("#!/bin/bash\n"), 0644)
	}

	require.NoError(t, p.InstallMiniconda())
	assert.Equal(t, "https://repo.anaconda.com/miniconda/Miniconda3-latest-MacOSX-arm64.sh", downloaded)
	assert.Equal(t, []string{"bash Miniconda3-latest-MacOSX-arm64.sh -b -p " + filepath.Join(home, "miniconda")}, r.Commands())
	assert.True(t, r.Calls[0].Check)
	assert.NoFileExists(t, "Miniconda3-latest-MacOSX-arm64.sh", "installer is deleted afterwards")

	// Already installed: nothing is downloaded or run.
	require.NoError(t, os.MkdirAll(filepath.Join(home, "miniconda"), 0755))
	downloaded = ""
	require.NoError(t, p.InstallMiniconda())
	assert.Empty(t, downloaded)
	assert.Len(t, r.Calls, 1)
}

func TestInstallMinicondaFailures(t *testing.T) {
	f := newFixture(t, platform.Info{OS: platform.Darwin, Arch: platform.ARM64, Shell: "/bin/zsh"})
	p, r := f.p, f.r

	p.Download = func(url, dest string) error { return errors.New("connection refused") }
	assert.ErrorContains(t, p.InstallMiniconda(), "connection refused")
	assert.Empty(t, r.Calls)

	p.Download = func(url, dest string) error { return os.WriteFile(dest, nil, 0644) }
	r.Fail("bash Miniconda3", errors.New("exit status 2"))
	assert.Error(t, p.InstallMiniconda())
}
