// Package prereq checks for the external tools an install expects. The
// checks are advisory: results are reported, and the caller decides
// whether to continue.
package prereq

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Result holds the outcome of the prerequisite checks.
type Result struct {
	VSCode bool
	Git    bool
}

// AllPresent reports whether every prerequisite was found.
func (r Result) AllPresent() bool {
	return r.VSCode && r.Git
}

// Checker probes for prerequisites via PATH lookups.
type Checker struct {
	vscodeBin string
	gitBin    string
}

// NewChecker creates a checker. Empty command names select the
// defaults (`code` and `git`).
func NewChecker(vscodeBin, gitBin string) *Checker {
	if vscodeBin == "" {
		vscodeBin = "code"
	}
	if gitBin == "" {
		gitBin = "git"
	}
	return &Checker{vscodeBin: vscodeBin, gitBin: gitBin}
}

// Check probes for each prerequisite.
func (c *Checker) Check(ctx context.Context) Result {
	if ctx.Err() != nil {
		return Result{}
	}
	return Result{
		VSCode: commandExists(c.vscodeBin),
		Git:    commandExists(c.gitBin),
	}
}

// Report writes a human-readable line per prerequisite. instructions is
// the platform-specific guidance appended when anything is missing.
func Report(w io.Writer, result Result, instructions string) {
	writeLine(w, "VS Code", result.VSCode)
	writeLine(w, "Git", result.Git)

	if !result.AllPresent() && instructions != "" {
		fmt.Fprintf(w, "\n%s\n", instructions)
	}
}

func writeLine(w io.Writer, name string, present bool) {
	if present {
		fmt.Fprintf(w, "✓ %s found\n", name)
		return
	}
	fmt.Fprintf(w, "⚠ %s not found\n", name)
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
