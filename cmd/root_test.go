package cmd

import (
	"bytes"
	"os"
	"testing"

	"dl-setup/internal/logger"
	"dl-setup/internal/platform"
	"dl-setup/internal/runner"
	"dl-setup/internal/runner/runnertest"
	"dl-setup/internal/state"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	goos, goarch string
	env          map[string]string
}

func (h fakeHost) GOOS() string   { return h.goos }
func (h fakeHost) GOARCH() string { return h.goarch }
func (h fakeHost) LookupEnv(key string) (string, bool) {
	v, ok := h.env[key]
	return v, ok
}

type harness struct {
	r     *runnertest.Recorder
	log   *bytes.Buffer
	out   *bytes.Buffer
	exits []int
}

// newHarness points the CLI at a fake host, a recording runner and a temp home
// and working directory, and records exit codes instead of exiting.
func newHarness(t *testing.T, h platform.Host) *harness {
	t.Helper()
	hs := &harness{r: &runnertest.Recorder{}, log: &bytes.Buffer{}, out: &bytes.Buffer{}}

	color.NoColor = true
	prevOut := logger.SetOutput(hs.log)
	t.Chdir(t.TempDir())
	home := t.TempDir()

	prevHost, prevRunner, prevHome, prevExit := host, newRunner, homeDir, exit
	prevStrict, prevConfig, prevState := strict, configPath, statePath
	t.Cleanup(func() {
		logger.SetOutput(prevOut)
		host, newRunner, homeDir, exit = prevHost, prevRunner, prevHome, prevExit
		strict, configPath, statePath = prevStrict, prevConfig, prevState
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	host = h
	newRunner = func() runner.Runner { return hs.r }
	homeDir = func() (string, error) { return home, nil }
	exit = func(code int) { hs.exits = append(hs.exits, code) }
	rootCmd.SetOut(hs.out)
	return hs
}

func (hs *harness) execute(t *testing.T, args ...string) {
	t.Helper()
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
}

var linuxHost = fakeHost{goos: "linux", goarch: "amd64", env: map[string]string{"SHELL": "/bin/bash"}}

func TestStrictFlagReachesProvisioner(t *testing.T) {
	newHarness(t, linuxHost)

	s, err := newSession()
	require.NoError(t, err)
	assert.False(t, s.provisioner().Strict)

	require.NoError(t, rootCmd.ParseFlags([]string{"--strict"}))
	require.True(t, strict)
	s, err = newSession()
	require.NoError(t, err)
	assert.True(t, s.cfg.Strict)
	assert.True(t, s.provisioner().Strict)
}

func TestStrictFromConfigFile(t *testing.T) {
	newHarness(t, linuxHost)
	require.NoError(t, os.WriteFile("dl-setup.yaml", []byte("strict: true\n"), 0644))

	s, err := newSession()
	require.NoError(t, err)
	assert.True(t, s.provisioner().Strict)
}

func TestUnsupportedPlatformExitsNonZero(t *testing.T) {
	hs := newHarness(t, fakeHost{goos: "linux", goarch: "arm64", env: map[string]string{"SHELL": "/bin/bash"}})

	hs.execute(t)

	assert.Equal(t, []int{1}, hs.exits)
	assert.Contains(t, hs.log.String(), "[ERROR] could not find a compatible operating system")
	assert.Contains(t, hs.out.String(), "unsupported")
	assert.Empty(t, hs.r.Calls)
	assert.NoFileExists(t, statePath)
}

func TestMissingShellExitsNonZero(t *testing.T) {
	hs := newHarness(t, fakeHost{goos: "darwin", goarch: "arm64"})

	hs.execute(t)

	assert.Equal(t, []int{1}, hs.exits)
	assert.Contains(t, hs.log.String(), "environment variable SHELL is not set")
}

func TestInfoPrintsSampleTensor(t *testing.T) {
	hs := newHarness(t, linuxHost)

	hs.execute(t, "info")

	assert.Empty(t, hs.exits)
	out := hs.out.String()
	assert.Contains(t, out, "virtual environments (x86_64)")
	assert.Contains(t, out, "Go version: ")
	assert.Contains(t, out, "Sample tensor:")
	assert.Contains(t, out, "dtype        Float32")
	assert.Contains(t, out, "Shape        [2 3]")
	assert.Contains(t, out, "Python: ")
}

func TestTeardownEmptyLedger(t *testing.T) {
	hs := newHarness(t, linuxHost)

	hs.execute(t, "teardown")

	assert.Empty(t, hs.exits)
	assert.Contains(t, hs.log.String(), "Nothing to remove")
}

func TestTeardownKeepsFailedEntries(t *testing.T) {
	hs := newHarness(t, linuxHost)
	st := state.New()
	st.Environments["mystery"] = state.EnvironmentState{Kind: "docker"}
	state.SaveState(statePath, st)

	hs.execute(t, "teardown")

	assert.Equal(t, []int{1}, hs.exits)
	assert.Contains(t, state.LoadState(statePath).Environments, "mystery")
}
