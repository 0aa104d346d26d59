package cmd

import (
	"fmt"
	"io"
	"os"
	"os/user"

	"dl-setup/internal/config"
	"dl-setup/internal/installer"
	"dl-setup/internal/logger"
	"dl-setup/internal/platform"
	"dl-setup/internal/prereq"
	"dl-setup/internal/runner"
	"dl-setup/internal/state"

	"github.com/spf13/cobra"
)

// debug flag indicates whether debug logging should be enabled.
// It can be toggled via the `--debug` command-line flag.
var debug bool

// configPath is an optional YAML file layered over the built-in defaults.
var configPath string

// statePath is where the ledger of provisioned environments is kept.
var statePath = ".dl-setup-state.json"

// strict makes every external command checked.
var strict bool

// Process-wide inputs. Tests replace them.
var (
	host      platform.Host = platform.OSHost{}
	newRunner               = func() runner.Runner { return runner.Exec{Stdout: os.Stdout, Stderr: os.Stderr} }
	homeDir                 = func() (string, error) {
		usr, err := user.Current()
		if err != nil {
			return "", fmt.Errorf("failed to get current user: %w", err)
		}
		return usr.HomeDir, nil
	}
	exit = os.Exit
)

// rootCmd provisions the class environments for the detected platform.
var rootCmd = &cobra.Command{
	Use:   "dl-setup",
	Short: "Provision Python environments for the deep-learning class notebooks",
	Long: `dl-setup detects the host OS, CPU architecture and shell, then either
creates pytorch_cpu and tensorflow_cpu virtual environments (x86_64) or
installs Miniconda with tensorflow_metal and pytorch_metal environments
(Apple Silicon, including x86_64 processes under Rosetta).`,
	Args: cobra.NoArgs,

	// PersistentPreRun is a hook that runs before any subcommand.
	// Here, we initialize the logger based on the debug flag.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(debug)
	},
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(provision(cmd.OutOrStdout()))
	},
}

// session bundles what every command needs: the loaded configuration and the
// detected platform.
type session struct {
	cfg    config.Config
	info   platform.Info
	home   string
	runner runner.Runner
}

func newSession() (*session, error) {
	home, err := homeDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(configPath, home)
	if err != nil {
		return nil, err
	}
	if strict {
		cfg.Strict = true
	}

	r := newRunner()
	info, err := platform.Detect(host, r)
	if err != nil {
		return nil, err
	}
	logger.Debug("[DEBUG] Detected OS=%s arch=%s shell=%s rosetta=%t\n", info.OS, info.Arch, info.Shell, info.Rosetta)
	return &session{cfg: cfg, info: info, home: home, runner: r}, nil
}

func (s *session) provisioner() *installer.Provisioner {
	return installer.New(s.runner, s.cfg, s.info, s.home, prereq.NewValidator(s.runner, s.cfg.Python))
}

func provision(w io.Writer) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	branch, err := installer.SelectBranch(s.info)
	fmt.Fprintln(w, summary(s.info, branch))
	if err != nil {
		return err
	}

	st := state.LoadState(statePath)
	provErr := s.provisioner().Provision(st)
	// Environments finished before a failure are recorded too.
	state.SaveState(statePath, st)
	return provErr
}

// exitOnError prints err and terminates with status 1.
func exitOnError(err error) {
	if err == nil {
		return
	}
	logger.Error("[ERROR] %v\n", err)
	exit(1)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.StringVarP(&configPath, "config", "c", "", "YAML file overriding the built-in environment tables (default "+config.DefaultFile+" if present)")
	flags.StringVar(&statePath, "state", statePath, "Path of the provisioning ledger")
	flags.BoolVar(&strict, "strict", false, "Stop on any failed command, not only the critical ones")

	rootCmd.AddCommand(infoCmd, teardownCmd)
}

// Execute starts the command execution.
// It's the entry point for the CLI when invoked by the user.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exit(1)
	}
}
