package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BackupSuffix is appended to rc file backups.
const BackupSuffix = ".relayup-backup"

// ExportLine renders the line that sets an environment variable in the
// given shell's syntax.
func ExportLine(shell ShellType, name, value string) string {
	if shell == ShellFish {
		return fmt.Sprintf("set -gx %s %q", name, value)
	}
	return fmt.Sprintf("export %s=%q", name, value)
}

// PathLine renders the line that prepends a directory to PATH in the
// given shell's syntax.
func PathLine(shell ShellType, dir string) string {
	if shell == ShellFish {
		return fmt.Sprintf("fish_add_path %q", dir)
	}
	return fmt.Sprintf("export PATH=%q", dir+":$PATH")
}

// exportPrefix is the line prefix identifying an existing assignment of
// the named variable in the given shell's syntax.
func exportPrefix(shell ShellType, name string) string {
	if shell == ShellFish {
		return "set -gx " + name + " "
	}
	return "export " + name + "="
}

// UpsertEnvVar sets a persistent environment variable in the rc file:
// an existing assignment written by any tool is replaced in place,
// otherwise a marked assignment is appended. The rc file is created if
// missing; an existing rc file is backed up before it is modified. The
// write is atomic (temp file + rename).
func UpsertEnvVar(rcPath string, shell ShellType, name, value string) error {
	content, err := readRCFile(rcPath)
	if err != nil {
		return err
	}

	line := ExportLine(shell, name, value)
	prefix := exportPrefix(shell, name)

	lines := strings.Split(content, "\n")
	replaced := false
	for i, existing := range lines {
		if strings.HasPrefix(strings.TrimSpace(existing), prefix) {
			lines[i] = line
			replaced = true
		}
	}

	var updated string
	if replaced {
		updated = strings.Join(lines, "\n")
		if !strings.HasSuffix(updated, "\n") {
			updated += "\n"
		}
	} else {
		updated = appendSection(content, line)
	}

	if updated == content {
		return nil
	}
	if _, err := BackupRCFile(rcPath); err != nil {
		return err
	}

	return writeRCFileAtomic(rcPath, updated)
}

// EnsurePathEntry appends a PATH line for dir unless the rc file already
// references the directory. Idempotent; an existing rc file is backed up
// before it is modified.
func EnsurePathEntry(rcPath string, shell ShellType, dir string) error {
	content, err := readRCFile(rcPath)
	if err != nil {
		return err
	}

	if strings.Contains(content, dir) {
		return nil
	}

	if _, err := BackupRCFile(rcPath); err != nil {
		return err
	}

	return writeRCFileAtomic(rcPath, appendSection(content, PathLine(shell, dir)))
}

// BackupRCFile copies the rc file aside before modification and returns
// the backup path. A missing rc file yields an empty path, not an error.
func BackupRCFile(rcPath string) (string, error) {
	content, err := os.ReadFile(rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", &RCFileError{Path: rcPath, Message: "failed to read file for backup", Cause: err}
	}

	backupPath := rcPath + BackupSuffix
	if err := os.WriteFile(backupPath, content, 0644); err != nil {
		return "", &RCFileError{Path: backupPath, Message: "failed to write backup file", Cause: err}
	}

	return backupPath, nil
}

// appendSection appends a marked line to the rc file content, ensuring
// separation from existing content.
func appendSection(content, line string) string {
	var b strings.Builder
	b.WriteString(content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(AdditionMarker)
	b.WriteString("\n")
	b.WriteString(line)
	b.WriteString("\n")
	return b.String()
}

// readRCFile returns the rc file content, or empty content when the file
// does not exist yet.
func readRCFile(rcPath string) (string, error) {
	content, err := os.ReadFile(rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", &RCFileError{Path: rcPath, Message: "failed to read file", Cause: err}
	}
	return string(content), nil
}

// writeRCFileAtomic writes rc file content via a temp file in the same
// directory followed by a rename.
func writeRCFileAtomic(rcPath, content string) error {
	dir := filepath.Dir(rcPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to create parent directory", Cause: err}
	}

	tmpFile, err := os.CreateTemp(dir, ".relayup-tmp-*")
	if err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to create temporary file", Cause: err}
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath) // no-op after successful rename

	if _, err := tmpFile.WriteString(content); err != nil {
		tmpFile.Close()
		return &RCFileError{Path: rcPath, Message: "failed to write content", Cause: err}
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return &RCFileError{Path: rcPath, Message: "failed to sync file", Cause: err}
	}

	if err := tmpFile.Close(); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to close temporary file", Cause: err}
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to set permissions", Cause: err}
	}

	if err := os.Rename(tmpPath, rcPath); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to rename temp file", Cause: err}
	}

	return nil
}
