package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dl-setup/internal/logger"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// DefaultFile is picked up from the working directory when --config is not given.
const DefaultFile = "dl-setup.yaml"

// Defaults returns the built-in configuration without any user overrides.
func Defaults() (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal built-in defaults: %w", err)
	}
	return cfg, nil
}

// LoadConfig builds the configuration in three layers: embedded defaults, the
// YAML file at configFile (if non-empty), and derived values that depend on the
// user's home directory. An empty configFile falls back to DefaultFile when it
// exists in the working directory.
func LoadConfig(configFile, home string) (Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return Config{}, err
	}

	if configFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			configFile = DefaultFile
		}
	}

	if configFile != "" {
		logger.Debug("[DEBUG] Loading config overrides from %s\n", configFile)
		raw, err := os.ReadFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read %s: %w", configFile, err)
		}
		// Unmarshalling over the defaults keeps every key the file leaves out.
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to unmarshal %s: %w", configFile, err)
		}
	}

	cfg.resolve(home)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// resolve fills in paths derived from other settings.
func (c *Config) resolve(home string) {
	if c.Miniconda.InstallPath == "" {
		c.Miniconda.InstallPath = filepath.Join(home, "miniconda")
	}
	for i := range c.Venv.Environments {
		env := &c.Venv.Environments[i]
		if env.Path == "" {
			env.Path = filepath.Join(c.Venv.Root, env.Name)
		}
	}
}

// Validate rejects tables the provisioner could not act on.
func (c Config) Validate() error {
	if len(c.Python.Candidates) == 0 {
		return errors.New("python.candidates must list at least one executable")
	}
	check := func(table string, envs []Environment, needVersion bool) error {
		seen := make(map[string]bool)
		for i, env := range envs {
			if env.Name == "" {
				return fmt.Errorf("%s.environments[%d]: name is required", table, i)
			}
			if seen[env.Name] {
				return fmt.Errorf("%s.environments: duplicate name %q", table, env.Name)
			}
			seen[env.Name] = true
			if env.Requirements == "" {
				return fmt.Errorf("%s.environments[%d] (%s): requirements is required", table, i, env.Name)
			}
			if needVersion && env.PythonVersion == "" {
				return fmt.Errorf("%s.environments[%d] (%s): python_version is required", table, i, env.Name)
			}
		}
		return nil
	}
	if err := check("venv", c.Venv.Environments, false); err != nil {
		return err
	}
	if err := check("miniconda", c.Miniconda.Environments, true); err != nil {
		return err
	}
	if c.Miniconda.URL == "" || c.Miniconda.FileName == "" {
		return errors.New("miniconda.url and miniconda.file_name are required")
	}
	return nil
}
