package installer

import (
	"fmt"
	"slices"

	"dl-setup/internal/config"
	"dl-setup/internal/logger"
	"dl-setup/internal/platform"
	"dl-setup/internal/state"
)

// Branch is the provisioning path chosen from the detected platform.
type Branch int

const (
	BranchUnsupported Branch = iota
	BranchVenv               // generic x86_64: Python venvs
	BranchMiniconda          // Apple Silicon (native or under Rosetta): conda envs
)

func (b Branch) String() string {
	switch b {
	case BranchVenv:
		return "virtual environments (x86_64)"
	case BranchMiniconda:
		return "Miniconda environments (Apple Silicon)"
	}
	return "unsupported"
}

// UnsupportedPlatformError names an OS/architecture pair with no provisioning path.
type UnsupportedPlatformError struct {
	OS   platform.OSName
	Arch platform.Arch
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("could not find a compatible operating system (OS) and CPU Architecture: "+
		"the platform seems to have OS=%s and CPU architecture=%s. "+
		"This setup supports only Windows, Linux or Darwin (Mac) as an OS and x86_64 or arm64 for the CPU architecture",
		e.OS, e.Arch)
}

// SelectBranch decides the provisioning path. Rosetta sends an x86_64 process
// on Apple Silicon down the Miniconda path.
func SelectBranch(info platform.Info) (Branch, error) {
	osOK := slices.Contains([]platform.OSName{platform.Windows, platform.Linux, platform.Darwin}, info.OS)
	x86 := info.Arch == platform.AMD64 || info.Arch == platform.X86_64
	appleSilicon := info.Arch == platform.ARM64 || info.Arch == platform.ARM64E

	switch {
	case osOK && x86 && !info.Rosetta:
		return BranchVenv, nil
	case info.OS == platform.Darwin && (appleSilicon || info.Rosetta):
		return BranchMiniconda, nil
	}
	return BranchUnsupported, &UnsupportedPlatformError{OS: info.OS, Arch: info.Arch}
}

// Provision runs the branch selected for p.Info and records what it
// provisioned in st (which may be nil).
func (p *Provisioner) Provision(st *state.State) error {
	branch, err := SelectBranch(p.Info)
	if err != nil {
		return err
	}
	logger.Debug("[DEBUG] Selected provisioning path: %s\n", branch)

	switch branch {
	case BranchVenv:
		return p.ProvisionVenvs(st)
	case BranchMiniconda:
		return p.ProvisionMiniconda(st)
	}
	return nil
}

// ProvisionVenvs validates the prerequisites, then for each venv environment
// creates it, installs its requirements and registers its kernel.
func (p *Provisioner) ProvisionVenvs(st *state.State) error {
	executable, err := p.Prereqs.Run()
	if err != nil {
		return err
	}
	p.Executable = executable

	if err := p.PrepareWheelhouse(); err != nil {
		return err
	}

	for _, env := range p.Config.Venv.Environments {
		ignoredBefore := p.ignored
		if err := p.CreateVenv(env); err != nil {
			return err
		}
		if err := p.InstallPackages(env); err != nil {
			return err
		}
		kernelBefore := p.ignored
		if err := p.InstallIPyKernel(env); err != nil {
			return err
		}
		p.record(st, env, state.KindVenv, p.ignored > ignoredBefore, p.ignored == kernelBefore)
	}
	return nil
}

// ProvisionMiniconda installs Miniconda, provisions each conda environment and
// wires the base environment into the user's shell.
func (p *Provisioner) ProvisionMiniconda(st *state.State) error {
	if err := p.InstallMiniconda(); err != nil {
		return err
	}
	if st != nil && st.Miniconda == nil {
		st.Miniconda = &state.MinicondaState{Path: p.Config.Miniconda.InstallPath, InstalledAt: p.Now()}
	}

	if err := p.PrepareWheelhouse(); err != nil {
		return err
	}

	envs := p.Config.Miniconda.Environments
	for i, env := range envs {
		ignoredBefore := p.ignored
		if err := p.CreateVenvMiniconda(env); err != nil {
			return err
		}
		if env.TensorflowDeps {
			if err := p.InstallTensorflowDepsMiniconda(env); err != nil {
				return err
			}
		}
		if err := p.InstallRequirementsMiniconda(env); err != nil {
			return err
		}
		p.record(st, env, state.KindConda, p.ignored > ignoredBefore, false)
		logger.Info("\n (%d/%d) Installation Successful! Please run 'conda activate %s' to activate the environment.\n",
			i+1, len(envs), env.Name)
	}

	if _, err := ConfigureShellConfigFile(p.Info.Shell, p.Config.Miniconda.InstallPath, p.Home); err != nil {
		return err
	}
	logger.Info("\nPlease restart your shell window for changes to take effect.\n")
	return nil
}

// record adds env to the ledger. degraded marks an environment for which a
// best-effort step failed and was ignored; kernel reports whether an ipykernel
// spec was registered.
func (p *Provisioner) record(st *state.State, env config.Environment, kind string, degraded, kernel bool) {
	if st == nil {
		return
	}
	es := state.EnvironmentState{
		Kind:          kind,
		Requirements:  env.Requirements,
		Degraded:      degraded,
		ProvisionedAt: p.Now(),
	}
	switch kind {
	case state.KindVenv:
		es.Path = env.Path
		es.Kernel = kernel
	case state.KindConda:
		es.PythonVersion = env.PythonVersion
	}
	if degraded {
		logger.Warn("[WARN] %s was recorded as degraded: at least one step failed and was ignored\n", env.Name)
	}
	st.Environments[env.Name] = es
}
