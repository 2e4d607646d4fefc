package main

import (
	"context"
	"fmt"
	"time"
)

// runConfigure handles the `relayup configure` subcommand: re-deploy
// configuration and extensions without reinstalling the binary.
func runConfigure(args []string) error {
	toolName := "relay"
	payloadDir := ""

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--help", "-h":
			fmt.Println("Usage: relayup configure [--tool <name>] [--payload <dir>]")
			return nil
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
			return fmt.Errorf("unknown option: %s", args[i])
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	registry := newRegistry(payloadDir)
	t, err := registry.Get(toolName)
	if err != nil {
		return err
	}

	return t.Configure(ctx)
}
