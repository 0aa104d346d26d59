package state

import (
	"encoding/json"
	"os"
	"time"

	"dl-setup/internal/logger"
)

// Environment kinds recorded in the ledger.
const (
	KindVenv  = "venv"
	KindConda = "conda"
)

// EnvironmentState records one provisioned environment.
// The ledger is informational: provisioning never skips a step because of it,
// but teardown uses it to know what to remove.
type EnvironmentState struct {
	Kind          string    `json:"kind"`                     // KindVenv or KindConda
	Path          string    `json:"path,omitempty"`           // venv directory; empty for conda envs
	Requirements  string    `json:"requirements"`             // manifest that was installed
	PythonVersion string    `json:"python_version,omitempty"` // conda interpreter pin
	Kernel        bool      `json:"kernel"`                   // true if an ipykernel spec was registered
	Degraded      bool      `json:"degraded,omitempty"`       // a best-effort step failed and was ignored
	ProvisionedAt time.Time `json:"provisioned_at"`
}

// MinicondaState records the Miniconda installation the conda envs live in.
type MinicondaState struct {
	Path        string    `json:"path"`
	InstalledAt time.Time `json:"installed_at"`
}

// State holds the entire saved state for the setup tool.
type State struct {
	Environments map[string]EnvironmentState `json:"environments"` // Map from environment name to its state
	Miniconda    *MinicondaState             `json:"miniconda,omitempty"`
}

// New returns an empty, initialized State.
func New() *State {
	return &State{Environments: make(map[string]EnvironmentState)}
}

// LoadState loads the saved state from a JSON file at the given path.
// If the file does not exist or cannot be read, it returns a new empty State struct.
func LoadState(path string) *State {
	file, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("[DEBUG] No state loaded from %s: %v\n", path, err)
		return New()
	}

	var st State
	if err := json.Unmarshal(file, &st); err != nil {
		logger.Warn("[WARN] Ignoring unreadable state file %s: %v\n", path, err)
		return New()
	}

	// The file may contain null for the map
	if st.Environments == nil {
		st.Environments = make(map[string]EnvironmentState)
	}
	return &st
}

// SaveState writes the given State struct to a JSON file at the given path.
// It pretty-prints the JSON with indentation for readability.
// Errors during marshalling or writing are logged but not propagated.
func SaveState(path string, st *State) {
	file, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		logger.Error("[ERROR] Failed to marshal state: %v\n", err)
		return
	}

	logger.Debug("[DEBUG] Writing state to %s:\n%s\n", path, string(file))

	if err := os.WriteFile(path, file, 0644); err != nil {
		logger.Error("[ERROR] Failed to write state file %s: %v\n", path, err)
	}
}
