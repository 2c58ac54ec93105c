package multiplex

import (
	"os"
	"testing"

	"github.com/sorvi-platform/harha/internal/hostfs"
	"github.com/sorvi-platform/harha/pkg/vfs"
	"github.com/sorvi-platform/harha/pkg/vfs/passthrough"
)

const (
	tagAlpha = 0
	tagBeta  = 1
)

func newMountedVFS(t *testing.T) (*vfs.VFS, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "harha_multiplex")
	if err != nil {
		t.Fatal("unable to create temporary directory:", err)
	}
	root, err := hostfs.OpenRoot(dir)
	if err != nil {
		t.Fatal("unable to open temporary directory:", err)
	}
	backend := passthrough.New(root)
	v := vfs.New(backend, "")
	return v, func() {
		v.Deinit()
		root.Close()
		os.RemoveAll(dir)
	}
}

func mustPath(t *testing.T, s string) vfs.SafePath {
	t.Helper()
	p, err := vfs.Resolve(s)
	if err != nil {
		t.Fatalf("Resolve(%q) failed: %v", s, err)
	}
	return p
}

func TestMultiplexRootDirIsZeroForFirstTag(t *testing.T) {
	mx := New(2)
	if got := mx.RootDir(tagAlpha); got != vfs.RootDir {
		t.Errorf("RootDir(0) = %d, want %d (the all-zero sentinel)", got, vfs.RootDir)
	}
}

func TestMultiplexForwardsToTaggedChild(t *testing.T) {
	alpha, cleanupAlpha := newMountedVFS(t)
	defer cleanupAlpha()
	beta, cleanupBeta := newMountedVFS(t)
	defer cleanupBeta()

	mx := New(2)
	if err := mx.Mount(tagAlpha, alpha); err != nil {
		t.Fatal("mount alpha failed:", err)
	}
	if err := mx.Mount(tagBeta, beta); err != nil {
		t.Fatal("mount beta failed:", err)
	}
	v := vfs.New(mx, "")
	defer v.Deinit()

	fAlpha, err := v.OpenFile(mx.RootDir(tagAlpha), mustPath(t, "a.txt"), vfs.FileOpenOptions{Mode: vfs.WriteOnly, Create: true})
	if err != nil {
		t.Fatal("openFile on alpha failed:", err)
	}
	if _, err := v.Writev(fAlpha, [][]byte{[]byte("alpha-data")}); err != nil {
		t.Fatal("writev on alpha failed:", err)
	}
	v.CloseFile(fAlpha)

	fBeta, err := v.OpenFile(mx.RootDir(tagBeta), mustPath(t, "b.txt"), vfs.FileOpenOptions{Mode: vfs.WriteOnly, Create: true})
	if err != nil {
		t.Fatal("openFile on beta failed:", err)
	}
	if _, err := v.Writev(fBeta, [][]byte{[]byte("beta-data")}); err != nil {
		t.Fatal("writev on beta failed:", err)
	}
	v.CloseFile(fBeta)

	if _, err := alpha.Stat(vfs.RootDir, mustPath(t, "b.txt")); err == nil {
		t.Error("alpha unexpectedly sees beta's file — tags were not kept separate")
	}
	if _, err := beta.Stat(vfs.RootDir, mustPath(t, "a.txt")); err == nil {
		t.Error("beta unexpectedly sees alpha's file — tags were not kept separate")
	}

	if st, err := alpha.Stat(vfs.RootDir, mustPath(t, "a.txt")); err != nil || st.Size != 10 {
		t.Errorf("alpha stat a.txt = %+v, %v; want size 10, nil", st, err)
	}
	if st, err := beta.Stat(vfs.RootDir, mustPath(t, "b.txt")); err != nil || st.Size != 9 {
		t.Errorf("beta stat b.txt = %+v, %v; want size 9, nil", st, err)
	}
}

func TestMultiplexUnmountedTagFails(t *testing.T) {
	mx := New(2)
	v := vfs.New(mx, "")
	defer v.Deinit()

	if _, err := v.Stat(mx.RootDir(tagAlpha), mustPath(t, "a.txt")); err == nil {
		t.Error("stat against an unmounted tag succeeded, want an error")
	}
}

func TestMultiplexIterateSubstitutesChrootedRoot(t *testing.T) {
	alpha, cleanupAlpha := newMountedVFS(t)
	defer cleanupAlpha()

	sub, err := alpha.OpenDir(vfs.RootDir, mustPath(t, "sub"), vfs.DirOpenOptions{Create: true, Iterate: true})
	if err != nil {
		t.Fatal("openDir(sub) failed:", err)
	}
	f, err := alpha.OpenFile(sub, mustPath(t, "inner.txt"), vfs.FileOpenOptions{Mode: vfs.WriteOnly, Create: true})
	if err != nil {
		t.Fatal("openFile(inner.txt) failed:", err)
	}
	alpha.CloseFile(f)

	if err := alpha.Chroot(vfs.RootDir, mustPath(t, "sub")); err != nil {
		t.Fatal("chroot failed:", err)
	}
	alpha.CloseDir(sub)

	mx := New(1)
	if err := mx.Mount(tagAlpha, alpha); err != nil {
		t.Fatal("mount failed:", err)
	}
	v := vfs.New(mx, "")
	defer v.Deinit()

	it, err := v.Iterate(mx.RootDir(tagAlpha))
	if err != nil {
		t.Fatal("iterate failed:", err)
	}
	defer it.Deinit()

	seen := map[string]bool{}
	for {
		entry, err := it.Next()
		if err != nil {
			t.Fatal("iterator Next failed:", err)
		}
		if entry == nil {
			break
		}
		seen[entry.Basename] = true
	}
	if !seen["inner.txt"] {
		t.Errorf("iteration of the chrooted root saw %v, want inner.txt", seen)
	}
}
