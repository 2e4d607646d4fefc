package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/relaykit/relayup/internal/platform"
	"github.com/relaykit/relayup/internal/prereq"
)

// runCheck handles the `relayup check` subcommand: platform report,
// prerequisite checks, and install status for every known tool.
func runCheck(args []string) error {
	payloadDir := ""
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--help", "-h":
			fmt.Println("Usage: relayup check")
			return nil
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	detector := platform.NewDetector()
	info, err := detector.Detect(ctx)
	if err != nil {
		return fmt.Errorf("detect platform: %w", err)
	}
	ops := platform.NewOps(info)

	distro := info.GetDistro()
	if distro != nil {
		fmt.Printf("Platform: %s (%s family, %s) -> %s\n", distro.ID, distro.Family, info.Arch, ops.PlatformID())
	} else {
		fmt.Printf("Platform: %s %s -> %s\n", info.OS, info.Arch, ops.PlatformID())
	}
	fmt.Println()

	checker := prereq.NewChecker("", "")
	result := checker.Check(ctx)
	prereq.Report(os.Stdout, result, ops.InstallInstructions())
	fmt.Println()

	registry := newRegistry(payloadDir)
	for _, name := range registry.Names() {
		t, err := registry.Get(name)
		if err != nil {
			return err
		}
		installed, err := t.IsInstalled(ctx)
		if err != nil {
			return fmt.Errorf("check %s: %w", t.DisplayName(), err)
		}
		if installed {
			fmt.Printf("✓ %s is installed\n", t.DisplayName())
		} else {
			fmt.Printf("⚠ %s is not installed\n", t.DisplayName())
		}
	}

	return nil
}
