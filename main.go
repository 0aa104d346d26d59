package main

import "dl-setup/cmd"

// main is the program entry point.
// It delegates to cmd.Execute() which handles command line argument parsing and execution.
//
// dl-setup prepares a machine for the deep-learning class notebooks:
//   - Detects OS, CPU architecture, shell and Rosetta translation
//   - On x86_64 hosts validates Python, git and pip, then creates one venv per
//     framework and registers each as a Jupyter kernel
//   - On Apple Silicon installs Miniconda, creates Metal-enabled conda envs and
//     activates the base environment in the shell startup file
//   - Records what it provisioned in a JSON ledger so `teardown` can undo it
func main() {
	cmd.Execute()
}
