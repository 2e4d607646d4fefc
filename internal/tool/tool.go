// Package tool defines the installable tools relayup manages and the
// install pipeline that acquires, verifies, and deploys them. Relay is
// the only tool today; the registry keeps the command layer independent
// of that fact.
package tool

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
)

// Tool is one installable product.
type Tool interface {
	// Name is the registry key and CLI identifier (e.g. "relay").
	Name() string
	// DisplayName is the human-facing product name.
	DisplayName() string
	// IsInstalled reports whether the tool is already present.
	IsInstalled(ctx context.Context) (bool, error)
	// Install runs the full install pipeline.
	Install(ctx context.Context) error
	// Uninstall removes the tool.
	Uninstall(ctx context.Context) error
	// Configure re-runs configuration deployment without reinstalling.
	Configure(ctx context.Context) error
}

// Registry holds the known tools by name.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Re-registering a name replaces the old entry.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q (known: %v)", name, r.Names())
	}
	return t, nil
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CommandRunner executes an external command and returns its combined
// output. Injected so tests never execute a real vendor binary.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner is the production CommandRunner.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
