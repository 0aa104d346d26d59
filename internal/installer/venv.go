package installer

import (
	"path/filepath"

	"dl-setup/internal/config"
	"dl-setup/internal/logger"
	"dl-setup/internal/platform"
	"dl-setup/internal/runner"
)

// venvBin returns the path of an executable inside a venv: bin/<name> on
// POSIX, Scripts\<name> on Windows.
func (p *Provisioner) venvBin(venvPath, name string) string {
	if p.Info.OS == platform.Windows {
		return filepath.Join(venvPath, "Scripts", name)
	}
	return filepath.Join(venvPath, "bin", name)
}

// findLinks returns the pip arguments that point at the wheelhouse, if any.
func (p *Provisioner) findLinks() []string {
	if p.Wheelhouse == "" {
		return nil
	}
	return []string{"--find-links", p.Wheelhouse}
}

// CreateVenv creates a virtual environment at env.Path. An existing directory
// is left untouched.
func (p *Provisioner) CreateVenv(env config.Environment) error {
	if pathExists(env.Path) {
		logger.Info("[INFO] %s - Virtual environment folder already exists. Skipping venv creation. "+
			"If you want to recreate the venv, delete the folder and run this tool again.\n", env.Path)
		return nil
	}
	logger.Info("[INFO] %s - Creating virtual environment...\n", env.Path)
	if err := p.run(runner.Command(p.Executable, "-m", "venv", env.Path)); err != nil {
		return err
	}
	logger.Info("[INFO] %s - Virtual environment created\n", env.Path)
	return nil
}

// InstallPackages installs env.Requirements with the venv's own pip.
func (p *Provisioner) InstallPackages(env config.Environment) error {
	logger.Info("[INFO] %s - Installing packages...\n", env.Path)
	args := append([]string{"install", "-r", env.Requirements}, p.findLinks()...)
	if err := p.run(runner.Command(p.venvBin(env.Path, "pip"), args...)); err != nil {
		return err
	}
	logger.Info("[INFO] %s - Packages installed\n", env.Path)
	return nil
}

// InstallIPyKernel registers the venv as a Jupyter kernel named after the environment.
func (p *Provisioner) InstallIPyKernel(env config.Environment) error {
	logger.Info("[INFO] %s - Installing ipykernel...\n", env.Path)
	c := runner.Command(p.venvBin(env.Path, "python"), "-m", "ipykernel", "install", "--user",
		"--name="+env.Name, "--display-name="+env.Name)
	if err := p.run(c); err != nil {
		return err
	}
	logger.Info("[INFO] %s - ipykernel installed\n", env.Path)
	return nil
}
