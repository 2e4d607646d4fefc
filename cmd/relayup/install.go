package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/relaykit/relayup/internal/platform"
	"github.com/relaykit/relayup/internal/prereq"
)

// installTimeout bounds the whole install, downloads included.
const installTimeout = 15 * time.Minute

// runInstall handles the `relayup install` subcommand.
func runInstall(args []string) error {
	toolName := "relay"
	payloadDir := ""
	skipConfirm := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--help", "-h":
			printInstallHelp()
			return nil
		case "--yes", "-y":
			skipConfirm = true
		case "--tool":
			if i+1 >= len(args) {
				return fmt.Errorf("--tool requires a name")
			}
			i++
			toolName = args[i]
		case "--payload":
			if i+1 >= len(args) {
				return fmt.Errorf("--payload requires a directory")
			}
			i++
			payloadDir = args[i]
		default:
			return fmt.Errorf("unknown option: %s\nRun 'relayup install --help' for usage", args[i])
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), installTimeout)
	defer cancel()

	registry := newRegistry(payloadDir)
	t, err := registry.Get(toolName)
	if err != nil {
		return err
	}

	detector := platform.NewDetector()
	info, err := detector.Detect(ctx)
	if err != nil {
		return fmt.Errorf("detect platform: %w", err)
	}
	ops := platform.NewOps(info)

	// Prerequisites are advisory. Report them and let the user decide.
	result := prereq.NewChecker("", "").Check(ctx)
	prereq.Report(os.Stdout, result, ops.InstallInstructions())
	fmt.Println()

	if installed, err := t.IsInstalled(ctx); err == nil && installed {
		fmt.Printf("%s is already installed; reinstalling.\n\n", t.DisplayName())
	}

	if !skipConfirm {
		if !confirm(fmt.Sprintf("Install %s?", t.DisplayName())) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := t.Install(ctx); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("%s installed. Restart your shell to pick up PATH changes.\n", t.DisplayName())
	return nil
}

// confirm prompts for a yes/no answer on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func printInstallHelp() {
	fmt.Println("Usage: relayup install [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --tool <name>     Tool to install (default: relay)")
	fmt.Println("  --payload <dir>   Override the payload directory")
	fmt.Println("  --yes, -y         Skip the confirmation prompt")
}
