package main

import (
	"fmt"
	"os"

	"github.com/relaykit/relayup/internal/tool"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version":
			fmt.Printf("relayup %s\n", Version)
			return
		case "check":
			if err := runCheck(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "install":
			if err := runInstall(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "uninstall":
			if err := runUninstall(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "configure":
			if err := runConfigure(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "list":
			if err := runList(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	// Default: show help
	fmt.Println("relayup - installer for the Relay developer tools")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  relayup --version            Show version information")
	fmt.Println("  relayup check                Check prerequisites and install status")
	fmt.Println("  relayup install [options]    Install a tool")
	fmt.Println("  relayup uninstall [options]  Remove a tool")
	fmt.Println("  relayup configure [options]  Re-deploy configuration only")
	fmt.Println("  relayup list                 List known tools")
	fmt.Println()
	fmt.Println("Common options:")
	fmt.Println("  --tool <name>                Select a tool (default: relay)")
	fmt.Println("  --payload <dir>              Override the payload directory")
	fmt.Println("  --yes, -y                    Skip confirmation prompts")
}

// newRegistry builds the tool registry with production wiring.
func newRegistry(payloadDir string) *tool.Registry {
	registry := tool.NewRegistry()
	registry.Register(tool.NewRelay(tool.RelayOptions{
		PayloadDir: payloadDir,
		Out:        os.Stdout,
	}))
	return registry
}
