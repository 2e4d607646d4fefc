package shell

import (
	"os"
	"path/filepath"
	"strings"
)

// DetectShell detects the user's shell from the $SHELL environment
// variable. There is no parent-process fallback; callers supply a
// per-platform default instead.
func DetectShell() (*DetectionResult, error) {
	if shellPath := os.Getenv("SHELL"); shellPath != "" {
		shellType := parseShellFromPath(shellPath)
		if shellType.IsValid() {
			return &DetectionResult{
				Shell:     shellType,
				Method:    "$SHELL environment variable",
				ShellPath: shellPath,
			}, nil
		}
	}

	return &DetectionResult{
		Shell:  ShellUnknown,
		Method: "detection failed",
	}, nil
}

// DetectWithDefault detects the user's shell and falls back to the given
// default when detection fails.
func DetectWithDefault(fallback ShellType) ShellType {
	result, err := DetectShell()
	if err != nil || !result.Shell.IsValid() {
		return fallback
	}
	return result.Shell
}

// parseShellFromPath extracts the shell type from a shell binary path.
// Examples:
//   - /bin/bash -> bash
//   - /usr/bin/zsh -> zsh
//   - /usr/local/bin/fish -> fish
func parseShellFromPath(shellPath string) ShellType {
	baseName := strings.ToLower(filepath.Base(shellPath))

	switch baseName {
	case "bash":
		return ShellBash
	case "zsh":
		return ShellZsh
	case "fish":
		return ShellFish
	default:
		return ShellUnknown
	}
}

// RCFilePath returns the rc file that persistent environment changes are
// written to for the given shell. On macOS, bash login shells read
// .bash_profile rather than .bashrc. Unknown shells get .profile.
func RCFilePath(shell ShellType, goos string) (string, error) {
	homeDir, err := userHome()
	if err != nil {
		return "", err
	}

	switch shell {
	case ShellBash:
		if goos == "darwin" {
			return filepath.Join(homeDir, ".bash_profile"), nil
		}
		return filepath.Join(homeDir, ".bashrc"), nil
	case ShellZsh:
		return filepath.Join(homeDir, ".zshrc"), nil
	case ShellFish:
		return filepath.Join(homeDir, ".config", "fish", "config.fish"), nil
	default:
		return filepath.Join(homeDir, ".profile"), nil
	}
}

// userHome resolves the home directory, honoring the test override.
func userHome() (string, error) {
	if dir := os.Getenv("RELAYUP_HOME"); dir != "" {
		return dir, nil
	}
	return os.UserHomeDir()
}
