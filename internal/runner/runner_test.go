package runner

import (
	"bytes"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCmdString(t *testing.T) {
	c := Command("git", "--version")
	assert.Equal(t, "git --version", c.String())
	assert.False(t, c.Check)
	assert.True(t, c.Checked().Check)
	assert.False(t, c.Check, "Checked must not mutate the receiver")
}

func TestExecRunStreamsOutput(t *testing.T) {
	requireSh(t)
	var stdout, stderr bytes.Buffer
	r := Exec{Stdout: &stdout, Stderr: &stderr}

	require.NoError(t, r.Run(Command("sh", "-c", `echo out; echo err 1>&2`)))
	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
}

func TestExecArgumentsAreNotReparsed(t *testing.T) {
	requireSh(t)
	out, err := Exec{}.Output(Command("sh", "-c", `printf '%s' "$1"`, "sh", "a; echo injected"))
	require.NoError(t, err)
	assert.Equal(t, "a; echo injected", out)
}

func TestExecOutputIsStdoutOnly(t *testing.T) {
	requireSh(t)
	out, err := Exec{}.Output(Command("sh", "-c", `echo "Could not find platform dependent libraries <exec_prefix>" 1>&2; echo 3.11.9`))
	require.NoError(t, err)
	assert.Equal(t, "3.11.9\n", out)
}

func TestExecFailure(t *testing.T) {
	requireSh(t)
	out, err := Exec{}.Output(Command("sh", "-c", "echo partial; echo boom 1>&2; exit 3"))
	require.Error(t, err)
	assert.Equal(t, "partial\n", out)

	var runErr *Error
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, "boom\n", runErr.Output)
	assert.Contains(t, err.Error(), "Output: boom")

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())

	assert.Error(t, Exec{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}.Run(Command("sh", "-c", "exit 1")))
	assert.Error(t, Exec{}.Run(Command("dl-setup-definitely-not-a-binary")))
}
