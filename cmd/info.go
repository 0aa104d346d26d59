package cmd

import (
	"fmt"
	"io"

	"dl-setup/internal/installer"
	"dl-setup/internal/notebook"
	"dl-setup/internal/prereq"

	"github.com/gomlx/gomlx/types/tensors"
	"github.com/spf13/cobra"
)

// infoCmd prints what a provisioning run would see, without changing anything.
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the detected platform, the provisioning path and the toolchain versions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(info(cmd.OutOrStdout()))
	},
}

func info(w io.Writer) error {
	s, err := newSession()
	if err != nil {
		return err
	}

	branch, branchErr := installer.SelectBranch(s.info)
	fmt.Fprintln(w, summary(s.info, branch))
	if branchErr != nil {
		fmt.Fprintln(w, branchErr)
	}

	if err := notebook.PrintGoVersion(w); err != nil {
		return err
	}
	if err := notebook.PrintGomlxVersion(w); err != nil {
		return err
	}
	fmt.Fprintln(w, "Sample tensor:")
	sample := tensors.FromValue([][]float32{{1, 2, 3}, {4, 5, 6}})
	if err := notebook.PrintTensorInfo(w, sample); err != nil {
		return err
	}

	v := prereq.NewValidator(s.runner, s.cfg.Python)
	exe, err := v.FindPython()
	if err != nil {
		fmt.Fprintf(w, "Python: %v\n", err)
		return nil
	}
	ver, err := v.PythonVersion(exe)
	if err != nil {
		fmt.Fprintf(w, "Python: %s (%v)\n", exe, err)
		return nil
	}
	fmt.Fprintf(w, "Python: %s %s\n", exe, ver)
	return nil
}
