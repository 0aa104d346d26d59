package installer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"dl-setup/internal/logger"
)

// UnsupportedShellError is returned when no startup file is known for the shell.
type UnsupportedShellError struct {
	Shell string
}

func (e *UnsupportedShellError) Error() string {
	return fmt.Sprintf("could not determine shell config file for shell %s", e.Shell)
}

// shellConfigFile maps a shell path to its startup file under home.
// bash prefers ~/.bash_profile when it exists, as login shells on macOS read it.
func shellConfigFile(shell, home string) (string, error) {
	switch {
	case strings.Contains(shell, "zsh"):
		return filepath.Join(home, ".zshrc"), nil
	case strings.Contains(shell, "bash"):
		profile := filepath.Join(home, ".bash_profile")
		if pathExists(profile) {
			return profile, nil
		}
		return filepath.Join(home, ".bashrc"), nil
	}
	return "", &UnsupportedShellError{Shell: shell}
}

// minicondaBlock is the fixed block that activates the Miniconda base
// environment in new shells.
func minicondaBlock(minicondaPath string) []string {
	activate := filepath.Join(minicondaPath, "bin", "activate")
	return []string{
		"# Miniconda base environment",
		fmt.Sprintf(`export PATH="%s:$PATH"`, activate),
		"source " + activate,
	}
}

// ConfigureShellConfigFile appends the Miniconda block to the shell's startup
// file unless every line of it is already present. The file is only ever
// appended to. It returns the path of the startup file.
func ConfigureShellConfigFile(shell, minicondaPath, home string) (string, error) {
	rcPath, err := shellConfigFile(shell, home)
	if err != nil {
		return "", err
	}
	logger.Debug("[DEBUG] Using shell config file %s for shell %s\n", rcPath, shell)

	// Read existing lines to avoid duplicates
	existing, endsWithNewline, err := readLines(rcPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", rcPath, err)
	}

	block := minicondaBlock(minicondaPath)
	missing := false
	for _, line := range block {
		if !existing[line] {
			missing = true
			break
		}
	}
	if !missing {
		logger.Info("[INFO] %s already contains the Miniconda configuration\n", rcPath)
		return rcPath, nil
	}

	file, err := os.OpenFile(rcPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("unable to open file %s for appending: %w", rcPath, err)
	}
	defer file.Close()

	text := strings.Join(block, "\n") + "\n"
	if !endsWithNewline {
		text = "\n" + text
	}
	if _, err := file.WriteString(text); err != nil {
		return "", fmt.Errorf("failed to write Miniconda configuration to %s: %w", rcPath, err)
	}
	logger.Info("[INFO] Updated %s\n", rcPath)
	return rcPath, nil
}

// readLines returns the set of lines in path and whether the file is empty or
// ends in '\n'. A missing file has no lines. Lines may be of any length.
func readLines(path string) (map[string]bool, bool, error) {
	lines := make(map[string]bool)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return lines, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	endsWithNewline := true
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			endsWithNewline = strings.HasSuffix(line, "\n")
			lines[strings.TrimRight(line, "\r\n")] = true
		}
		if err == io.EOF {
			return lines, endsWithNewline, nil
		}
		if err != nil {
			return nil, false, err
		}
	}
}
