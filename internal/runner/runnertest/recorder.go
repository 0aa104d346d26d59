// Package runnertest provides a Runner that records commands instead of executing them.
package runnertest

import (
	"strings"

	"dl-setup/internal/runner"
)

type response struct {
	prefix string
	output string
	err    error
}

// Recorder implements runner.Runner. Every call is appended to Calls; the
// reply comes from the first registered response whose prefix matches the
// rendered command, or is ("", nil) when none matches.
type Recorder struct {
	Calls     []runner.Cmd
	responses []response
}

// On registers the reply for commands whose rendered form starts with prefix.
func (r *Recorder) On(prefix, output string, err error) *Recorder {
	r.responses = append(r.responses, response{prefix: prefix, output: output, err: err})
	return r
}

// Fail registers a failure for commands starting with prefix.
func (r *Recorder) Fail(prefix string, err error) *Recorder {
	return r.On(prefix, "", err)
}

func (r *Recorder) reply(c runner.Cmd) (string, error) {
	r.Calls = append(r.Calls, c)
	rendered := c.String()
	for _, resp := range r.responses {
		if strings.HasPrefix(rendered, resp.prefix) {
			if resp.err != nil {
				return resp.output, &runner.Error{Cmd: c, Output: resp.output, Err: resp.err}
			}
			return resp.output, nil
		}
	}
	return "", nil
}

// Run records c.
func (r *Recorder) Run(c runner.Cmd) error {
	_, err := r.reply(c)
	return err
}

// Output records c and returns the registered output.
func (r *Recorder) Output(c runner.Cmd) (string, error) {
	return r.reply(c)
}

// Commands returns the rendered form of every recorded call.
func (r *Recorder) Commands() []string {
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.String()
	}
	return out
}
