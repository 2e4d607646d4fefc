package main

import (
	"context"
	"fmt"
	"time"
)

// runList handles the `relayup list` subcommand.
func runList(args []string) error {
	for _, arg := range args {
		switch arg {
		case "--help", "-h":
			fmt.Println("Usage: relayup list")
			return nil
		default:
			return fmt.Errorf("unknown option: %s", arg)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	registry := newRegistry("")
	for _, name := range registry.Names() {
		t, err := registry.Get(name)
		if err != nil {
			return err
		}

		status := "not installed"
		if installed, err := t.IsInstalled(ctx); err == nil && installed {
			status = "installed"
		}
		fmt.Printf("%-10s %s (%s)\n", name, t.DisplayName(), status)
	}

	return nil
}
