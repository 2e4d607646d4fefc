package platform

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestInjectPlatformTable(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	info := &Info{OS: "darwin", Arch: "arm64"}
	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable: %v", err)
	}

	err := L.DoString(`
		assert(platform.os == "darwin")
		assert(platform.arch == "arm64")
		assert(platform.id == "darwin-arm64")
		assert(platform.is_macos)
		assert(platform.is_apple_silicon)
		assert(not platform.is_windows)
		assert(platform.when(true, "yes") == "yes")
		assert(platform.when(false, "yes") == nil)
	`)
	if err != nil {
		t.Fatalf("platform table assertions failed: %v", err)
	}
}

func TestPlatformTableIsReadOnly(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	if err := InjectPlatformTable(L, &Info{OS: "linux", Arch: "amd64"}); err != nil {
		t.Fatalf("InjectPlatformTable: %v", err)
	}

	if err := L.DoString(`platform.os = "windows"`); err == nil {
		t.Error("write to platform table should fail")
	}
}

func TestInjectPlatformTableDistro(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	info := &Info{OS: "linux", Arch: "amd64", Platform: "ubuntu", Family: FamilyDebian, Version: "24.04"}
	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable: %v", err)
	}

	err := L.DoString(`
		assert(platform.distro ~= nil)
		assert(platform.distro.id == "ubuntu")
		assert(platform.distro.family == "debian")
	`)
	if err != nil {
		t.Fatalf("distro assertions failed: %v", err)
	}
}
