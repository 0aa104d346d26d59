package config

import "path/filepath"

// Environment describes one target environment (a venv or a conda env).
// - Name: environment and kernel name (e.g., pytorch_cpu).
// - Path: venv directory; derived from Venv.Root when empty. Unused for conda envs.
// - Requirements: pip requirements manifest installed into the environment.
// - PythonVersion: interpreter pin, conda envs only.
// - TensorflowDeps: install Apple's tensorflow-deps bundle before the requirements.
type Environment struct {
	Name           string `yaml:"name"`
	Path           string `yaml:"path"`
	Requirements   string `yaml:"requirements"`
	PythonVersion  string `yaml:"python_version"`
	TensorflowDeps bool   `yaml:"tensorflow_deps"`
}

// Python holds the interpreter lookup order and the supported version range
// [MinVersion, MaxVersion).
type Python struct {
	Candidates []string `yaml:"candidates"`
	MinVersion string   `yaml:"min_version"`
	MaxVersion string   `yaml:"max_version"`
}

// Venv is the provisioning table for generic x86_64 hosts.
type Venv struct {
	Root         string        `yaml:"root"`
	Environments []Environment `yaml:"environments"`
}

// Miniconda is the provisioning table for Apple Silicon hosts.
type Miniconda struct {
	URL          string        `yaml:"url"`
	FileName     string        `yaml:"file_name"`
	InstallPath  string        `yaml:"install_path"`
	Environments []Environment `yaml:"environments"`
}

// ActivateScript is the conda activation script under the install path.
func (m Miniconda) ActivateScript() string {
	return filepath.Join(m.InstallPath, "bin", "activate")
}

// Config is the merged result of the embedded defaults and the optional user file.
type Config struct {
	Python     Python    `yaml:"python"`
	Venv       Venv      `yaml:"venv"`
	Miniconda  Miniconda `yaml:"miniconda"`
	Wheelhouse string    `yaml:"wheelhouse"` // optional archive of pre-built wheels
	Strict     bool      `yaml:"strict"`     // treat every external command as checked
}
