package vfs

import (
	"errors"
	"testing"
)

// restrictedBackend wraps memBackend but declares no permissions, so tests
// can verify that the facade never reaches the backend once a capability
// check fails.
type restrictedBackend struct {
	*memBackend
}

func (restrictedBackend) Permissions() Permissions { return Permissions{} }

func TestCapabilityGatingRejectsWithoutTouchingBackend(t *testing.T) {
	v := New(restrictedBackend{newMemBackend()}, "test")

	if _, err := v.OpenDir(RootDir, mustResolve(t, "sub"), DirOpenOptions{}); err != nil {
		t.Fatalf("openDir without Create requirement should not need a permission bit, got %v", err)
	}
	if _, err := v.Stat(RootDir, mustResolve(t, "file1.txt")); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("stat without the stat capability = %v, want PermissionDenied", err)
	}
	if _, err := v.Iterate(RootDir); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("iterate without the iterate capability = %v, want PermissionDenied", err)
	}
}

func TestOpenFileCapabilityPreconditions(t *testing.T) {
	b := &memBackend{dirs: map[Dir]*memDir{RootDir: {childByName: map[string]Dir{}}}}
	readOnly := struct {
		*memBackend
	}{b}
	v := &VFS{backend: readOnly, perms: ReadOnlyPermissions(), root: RootDir}

	if _, err := v.OpenFile(RootDir, mustResolve(t, "x"), FileOpenOptions{Mode: ReadOnly}); err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			t.Error("read-only open under read-only permissions was denied")
		}
	}
	if _, err := v.OpenFile(RootDir, mustResolve(t, "x"), FileOpenOptions{Mode: WriteOnly}); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("write-only open under read-only permissions = %v, want PermissionDenied", err)
	}
	if _, err := v.OpenFile(RootDir, mustResolve(t, "x"), FileOpenOptions{Create: true}); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("create open under read-only permissions = %v, want PermissionDenied", err)
	}
}

func TestChrootRebindsRoot(t *testing.T) {
	v := New(newMemBackend(), "test")

	if err := v.Chroot(RootDir, mustResolve(t, "sub")); err != nil {
		t.Fatal("Chroot failed:", err)
	}

	stat, err := v.Stat(RootDir, mustResolve(t, "file2.txt"))
	if err != nil {
		t.Fatal("Stat after Chroot failed:", err)
	}
	if stat.Kind != KindFile {
		t.Errorf("Stat after Chroot returned Kind %v, want KindFile", stat.Kind)
	}

	if err := v.Chroot(RootDir, SafePath{}); err != nil {
		t.Fatal("Chroot revert failed:", err)
	}
	if _, err := v.Stat(RootDir, mustResolve(t, "file1.txt")); err != nil {
		t.Fatal("Stat after reverting Chroot failed:", err)
	}
}

func mustResolve(t *testing.T, s string) SafePath {
	t.Helper()
	p, err := Resolve(s)
	if err != nil {
		t.Fatalf("Resolve(%q) failed: %v", s, err)
	}
	return p
}
