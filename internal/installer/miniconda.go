package installer

import (
	"fmt"
	"os"

	"dl-setup/internal/config"
	"dl-setup/internal/logger"
	"dl-setup/internal/runner"
)

// condaCmd runs script in bash after sourcing the Miniconda activation script.
// The script text is fixed; the activation path is "$1" and args follow as
// "$2", "$3", ... so no value is ever spliced into shell source.
func (p *Provisioner) condaCmd(script string, args ...string) runner.Cmd {
	argv := append([]string{"-c", `source "$1" && ` + script, "bash", p.Config.Miniconda.ActivateScript()}, args...)
	return runner.Command("bash", argv...).Checked()
}

// InstallMiniconda downloads the installer, runs it in batch mode into the
// configured install path and deletes it. An existing install path is left alone.
func (p *Provisioner) InstallMiniconda() error {
	mc := p.Config.Miniconda
	logger.Info("[INFO] Installing MiniConda...\n")
	if pathExists(mc.InstallPath) {
		logger.Info("[INFO] MiniConda is already installed.\n")
		return nil
	}

	logger.Debug("[DEBUG] Downloading %s to %s\n", mc.URL, mc.FileName)
	if err := p.Download(mc.URL, mc.FileName); err != nil {
		return fmt.Errorf("failed to download MiniConda installer: %w", err)
	}
	if err := p.run(runner.Command("bash", mc.FileName, "-b", "-p", mc.InstallPath).Checked()); err != nil {
		return err
	}
	if err := os.Remove(mc.FileName); err != nil {
		return fmt.Errorf("failed to remove MiniConda installer %s: %w", mc.FileName, err)
	}
	logger.Info("[INFO] MiniConda installed successfully\n")
	return nil
}

// CreateVenvMiniconda creates a conda environment pinned to env.PythonVersion.
func (p *Provisioner) CreateVenvMiniconda(env config.Environment) error {
	logger.Info("[INFO] Creating Miniconda environment %q with Python %s...\n", env.Name, env.PythonVersion)
	c := p.condaCmd(`conda create -n "$2" python="$3" --yes`, env.Name, env.PythonVersion)
	if err := p.run(c); err != nil {
		return err
	}
	logger.Info("[INFO] Miniconda environment %q created\n", env.Name)
	return nil
}

// InstallTensorflowDepsMiniconda installs Apple's tensorflow-deps bundle.
// Only meaningful on Apple Silicon.
func (p *Provisioner) InstallTensorflowDepsMiniconda(env config.Environment) error {
	logger.Info("[INFO] Installing required packages for Tensorflow in %q environment...\n", env.Name)
	c := p.condaCmd(`conda activate "$2" && conda install -c apple tensorflow-deps --yes`, env.Name)
	if err := p.run(c); err != nil {
		return err
	}
	logger.Info("[INFO] tensorflow-deps installed in %q environment\n", env.Name)
	return nil
}

// InstallRequirementsMiniconda activates the environment and pip-installs env.Requirements.
func (p *Provisioner) InstallRequirementsMiniconda(env config.Environment) error {
	logger.Info("[INFO] Installing required packages in %s in %q environment...\n", env.Requirements, env.Name)
	script := `conda activate "$2" && python -m pip install -r "$3"`
	args := []string{env.Name, env.Requirements}
	if p.Wheelhouse != "" {
		script += ` --find-links "$4"`
		args = append(args, p.Wheelhouse)
	}
	if err := p.run(p.condaCmd(script, args...)); err != nil {
		return err
	}
	logger.Info("[INFO] %s installed in %q environment\n", env.Requirements, env.Name)
	return nil
}
