package cmd

import (
	"dl-setup/internal/logger"
	"dl-setup/internal/state"

	"github.com/spf13/cobra"
)

// teardownCmd removes every environment recorded in the ledger. Miniconda
// itself and the shell startup file are left in place.
var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Remove the environments recorded in the provisioning ledger",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(teardown())
	},
}

func teardown() error {
	s, err := newSession()
	if err != nil {
		return err
	}

	st := state.LoadState(statePath)
	if len(st.Environments) == 0 {
		logger.Info("[INFO] No environments recorded in %s. Nothing to remove.\n", statePath)
		return nil
	}
	err = s.provisioner().Teardown(st)
	state.SaveState(statePath, st)
	if err != nil {
		return err
	}
	logger.Info("[INFO] Teardown complete\n")
	return nil
}
