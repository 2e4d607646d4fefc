// Package vscode wraps the VS Code command line for extension
// management. Errors coming back from the editor are translated and
// redacted so that usernames and raw tool output never reach the user.
package vscode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrNotInstalled indicates the `code` command is not on PATH.
	ErrNotInstalled = errors.New("VS Code command line tool not found")
	// ErrExtensionInstall indicates an extension failed to install.
	ErrExtensionInstall = errors.New("failed to install editor extension")
)

// RedactedError wraps an error with a sanitized message while keeping
// the chain intact for errors.Is checks.
type RedactedError struct {
	message string
	wrapped error
}

func (e *RedactedError) Error() string { return e.message }
func (e *RedactedError) Unwrap() error { return e.wrapped }

// VSCode is the interface for editor operations the installer performs.
type VSCode interface {
	Installed(ctx context.Context) bool
	InstallExtensions(ctx context.Context, vsixDir string, out io.Writer) error
}

// Client implements VSCode by shelling out to the `code` command.
type Client struct {
	bin string
}

// NewClient creates a client using the given command name, defaulting
// to `code` when empty.
func NewClient(bin string) *Client {
	if bin == "" {
		bin = "code"
	}
	return &Client{bin: bin}
}

// Installed reports whether the editor command line tool is available.
func (c *Client) Installed(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		return false
	}
	_, err := exec.LookPath(c.bin)
	return err == nil
}

// InstallExtensions installs every .vsix file found in vsixDir, in
// sorted filename order. A missing directory means the payload ships no
// extensions and is not an error. Each install result is reported to
// out; one failing extension does not stop the rest.
func (c *Client) InstallExtensions(ctx context.Context, vsixDir string, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	entries, err := os.ReadDir(vsixDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading extension directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".vsix") {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	if !c.Installed(ctx) {
		return ErrNotInstalled
	}

	var failures []error
	for _, name := range names {
		if err := c.installOne(ctx, filepath.Join(vsixDir, name)); err != nil {
			fmt.Fprintf(out, "⚠ extension %s: %v\n", name, err)
			failures = append(failures, fmt.Errorf("%s: %w", name, err))
			continue
		}
		fmt.Fprintf(out, "✓ extension %s\n", name)
	}

	return errors.Join(failures...)
}

// installOne runs a single `code --install-extension` invocation with a
// scrubbed environment.
func (c *Client) installOne(ctx context.Context, vsixPath string) error {
	cmd := exec.CommandContext(ctx, c.bin, "--install-extension", vsixPath, "--force")
	cmd.Env = []string{
		"HOME=" + os.Getenv("HOME"),
		"PATH=" + os.Getenv("PATH"),
		"USER=" + os.Getenv("USER"),
		"LANG=" + os.Getenv("LANG"),
		"APPDATA=" + os.Getenv("APPDATA"),
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return translateEditorError(err, string(output))
	}
	return nil
}

// translateEditorError maps editor CLI failures to stable errors with
// sanitized detail.
func translateEditorError(err error, output string) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("operation cancelled: %w", context.Canceled)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("operation timed out: %w", context.DeadlineExceeded)
	}

	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "not found") || strings.Contains(lower, "no such file"):
		return fmt.Errorf("%w: extension file not found", ErrExtensionInstall)
	case strings.Contains(lower, "permission denied"):
		return fmt.Errorf("%w: permission denied", ErrExtensionInstall)
	}

	return &RedactedError{
		message: fmt.Sprintf("%v: %s", ErrExtensionInstall, redactSensitiveInfo(output)),
		wrapped: ErrExtensionInstall,
	}
}

var (
	homePathRe  = regexp.MustCompile(`/home/[^/\s]+`)
	usersPathRe = regexp.MustCompile(`/Users/[^/\s]+`)
)

// redactSensitiveInfo strips usernames from paths and bounds the length
// of tool output included in error messages.
func redactSensitiveInfo(msg string) string {
	const maxLen = 200
	msg = strings.TrimSpace(msg)
	if len(msg) > maxLen {
		msg = msg[:maxLen] + "..."
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		msg = strings.ReplaceAll(msg, home, "$HOME")
	}
	msg = homePathRe.ReplaceAllString(msg, "/home/<user>")
	msg = usersPathRe.ReplaceAllString(msg, "/Users/<user>")

	return msg
}
