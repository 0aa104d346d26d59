package installer

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"dl-setup/internal/logger"
	"dl-setup/internal/runner"
	"dl-setup/internal/state"
)

// Teardown removes every environment recorded in st. Entries that could not be
// removed stay in st so a later run can retry them. Miniconda itself is kept.
func (p *Provisioner) Teardown(st *state.State) error {
	names := make([]string, 0, len(st.Environments))
	for name := range st.Environments {
		names = append(names, name)
	}
	slices.Sort(names)

	var failed []string
	for _, name := range names {
		if p.uninstallEnvironment(name, st.Environments[name]) {
			delete(st.Environments, name)
		} else {
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to remove environments: %s", strings.Join(failed, ", "))
	}
	return nil
}

// uninstallEnvironment removes one environment and reports whether it is gone.
func (p *Provisioner) uninstallEnvironment(name string, es state.EnvironmentState) bool {
	logger.Info("[INFO] Uninstalling %s...\n", name)

	switch es.Kind {
	case state.KindVenv:
		if es.Kernel && pathExists(es.Path) {
			// The kernel spec lives in the user's Jupyter data dir, outside the venv.
			c := runner.Command(p.venvBin(es.Path, "python"), "-m", "jupyter", "kernelspec", "uninstall", "-y", name)
			if err := p.Runner.Run(c); err != nil {
				logger.Warn("[WARN] Failed to remove kernel spec %s. Manual cleanup may be required: %v\n", name, err)
			}
		}
		if es.Path == "" {
			logger.Error("[ERROR] No path recorded for venv %s\n", name)
			return false
		}
		if err := os.RemoveAll(es.Path); err != nil {
			logger.Error("[ERROR] Failed to remove directory %s: %v\n", es.Path, err)
			return false
		}
		logger.Info("[INFO] Successfully removed directory %s\n", es.Path)
		return true

	case state.KindConda:
		if !pathExists(p.Config.Miniconda.ActivateScript()) {
			logger.Warn("[WARN] Miniconda not found at %s; nothing to remove for %s\n", p.Config.Miniconda.InstallPath, name)
			return true
		}
		if err := p.Runner.Run(p.condaCmd(`conda env remove -n "$2" --yes`, name)); err != nil {
			logger.Error("[ERROR] conda env remove failed for %s: %v\n", name, err)
			return false
		}
		logger.Info("[INFO] Removed conda environment %s\n", name)
		return true
	}

	logger.Warn("[WARN] Unknown environment kind %q for %s. Skipping.\n", es.Kind, name)
	return false
}
