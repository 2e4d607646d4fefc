package settings

import (
	"context"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/relaykit/relayup/internal/platform"
)

// Loader parses settings files, injecting the detected platform so
// files can branch on OS and architecture.
type Loader struct {
	detector platform.Detector
}

// NewLoader creates a loader using the given platform detector. A nil
// detector skips platform table injection.
func NewLoader(detector platform.Detector) *Loader {
	return &Loader{detector: detector}
}

// Load reads and evaluates the settings file at path. A missing file is
// not an error; defaults are returned. A file that exists but fails to
// parse is an error, never silently ignored.
func (l *Loader) Load(ctx context.Context, path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings file %s: %w", path, err)
	}

	return l.LoadString(ctx, string(data))
}

// LoadString evaluates settings from Lua source.
func (l *Loader) LoadString(ctx context.Context, luaCode string) (*Settings, error) {
	L := newSandboxedVM()
	defer L.Close()

	if l.detector != nil {
		info, err := l.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractSettings(L)
}

// extractSettings pulls values out of the global `relayup` table. A
// script that never defines the table gets the defaults, so an empty
// file is equivalent to no file.
func extractSettings(L *lua.LState) (*Settings, error) {
	settings := Default()

	global := L.GetGlobal("relayup")
	if global.Type() == lua.LTNil {
		return settings, nil
	}
	if global.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "invalid 'relayup' table",
			Detail:  fmt.Sprintf("expected table, got %s", global.Type()),
		}
	}

	table := global.(*lua.LTable)

	if v := table.RawGetString("distribution_root"); v.Type() == lua.LTString {
		settings.DistributionRoot = v.String()
	}
	if v := table.RawGetString("local_dir"); v.Type() == lua.LTString {
		settings.LocalDir = v.String()
	}
	if v := table.RawGetString("install_extensions"); v.Type() == lua.LTBool {
		settings.InstallExtensions = bool(v.(lua.LBool))
	}
	if v := table.RawGetString("deploy_configs"); v.Type() == lua.LTBool {
		settings.DeployConfigs = bool(v.(lua.LBool))
	}
	if v := table.RawGetString("register_path"); v.Type() == lua.LTBool {
		settings.RegisterPath = bool(v.(lua.LBool))
	}

	return settings, nil
}

// sandboxLuaVM strips everything that would let a settings file run
// commands, touch the filesystem, or load external code. string, table,
// and math stay available.
func sandboxLuaVM(L *lua.LState) {
	L.SetGlobal("os", lua.LNil)
	L.SetGlobal("io", lua.LNil)
	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)
	L.SetGlobal("debug", lua.LNil)
}

func newSandboxedVM() *lua.LState {
	L := lua.NewState()
	sandboxLuaVM(L)
	return L
}
