package main

import (
	"context"
	"fmt"
	"time"
)

// runUninstall handles the `relayup uninstall` subcommand.
func runUninstall(args []string) error {
	toolName := "relay"
	skipConfirm := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--help", "-h":
			fmt.Println("Usage: relayup uninstall [--tool <name>] [--yes]")
			return nil
		case "--yes", "-y":
			skipConfirm = true
		case "--tool":
			if i+1 >= len(args) {
				return fmt.Errorf("--tool requires a name")
			}
			i++
			toolName = args[i]
		default:
			return fmt.Errorf("unknown option: %s", args[i])
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	registry := newRegistry("")
	t, err := registry.Get(toolName)
	if err != nil {
		return err
	}

	installed, err := t.IsInstalled(ctx)
	if err != nil {
		return err
	}
	if !installed {
		fmt.Printf("%s is not installed.\n", t.DisplayName())
		return nil
	}

	if !skipConfirm {
		if !confirm(fmt.Sprintf("Uninstall %s?", t.DisplayName())) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	return t.Uninstall(ctx)
}
