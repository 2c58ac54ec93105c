package passthrough

import (
	"os"
	"testing"

	"github.com/sorvi-platform/harha/internal/hostfs"
	"github.com/sorvi-platform/harha/pkg/vfs"
)

func newTestBackend(t *testing.T) (*vfs.VFS, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "harha_passthrough")
	if err != nil {
		t.Fatal("unable to create temporary directory:", err)
	}

	root, err := hostfs.OpenRoot(dir)
	if err != nil {
		t.Fatal("unable to open temporary directory:", err)
	}

	backend := New(root)
	v := vfs.New(backend, "test")
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

func TestSeekAndRead(t *testing.T) {
	v, cleanup := newTestBackend(t)
	defer cleanup()

	f, err := v.OpenFile(vfs.RootDir, mustPath(t, "t.txt"), vfs.FileOpenOptions{Mode: vfs.ReadWrite, Create: true})
	if err != nil {
		t.Fatal("openFile failed:", err)
	}
	defer v.CloseFile(f)

	if _, err := v.Writev(f, [][]byte{[]byte("0123456789")}); err != nil {
		t.Fatal("writev failed:", err)
	}

	if pos, err := v.Seek(f, 5, vfs.SeekSet); err != nil || pos != 5 {
		t.Fatalf("seek(5, set) = %d, %v; want 5, nil", pos, err)
	}
	buf := make([]byte, 5)
	if n, err := v.Readv(f, [][]byte{buf}); err != nil || n != 5 || string(buf) != "56789" {
		t.Fatalf("readv = %d, %q, %v; want 5, \"56789\", nil", n, buf, err)
	}

	// Cursor is now 10. seek(3, backward) saturates from 10 to 7.
	if pos, err := v.Seek(f, 3, vfs.SeekBackward); err != nil || pos != 7 {
		t.Fatalf("seek(3, backward) = %d, %v; want 7, nil", pos, err)
	}
	buf3 := make([]byte, 5)
	if n, err := v.Readv(f, [][]byte{buf3}); err != nil || n != 3 || string(buf3[:3]) != "789" {
		t.Fatalf("readv after backward seek = %d, %q, %v; want 3, \"789\", nil", n, buf3[:n], err)
	}
}

func TestScatterWriteRead(t *testing.T) {
	v, cleanup := newTestBackend(t)
	defer cleanup()

	f, err := v.OpenFile(vfs.RootDir, mustPath(t, "scatter.txt"), vfs.FileOpenOptions{Mode: vfs.ReadWrite, Create: true})
	if err != nil {
		t.Fatal("openFile failed:", err)
	}
	defer v.CloseFile(f)

	n, err := v.Writev(f, [][]byte{[]byte("Hello"), []byte(", "), []byte("World!")})
	if err != nil {
		t.Fatal("writev failed:", err)
	}
	if n != 13 {
		t.Fatalf("writev returned %d, want 13", n)
	}

	// writev left the cursor at 13; rewind before reading the data back.
	if pos, err := v.Seek(f, 0, vfs.SeekSet); err != nil || pos != 0 {
		t.Fatalf("seek(0, set) = %d, %v; want 0, nil", pos, err)
	}

	buf1 := make([]byte, 5)
	buf2 := make([]byte, 7)
	got, err := v.Readv(f, [][]byte{buf1, buf2})
	if err != nil {
		t.Fatal("readv failed:", err)
	}
	if got != 12 {
		t.Fatalf("readv returned %d, want 12", got)
	}
	if string(buf1) != "Hello" {
		t.Errorf("first slice = %q, want %q", buf1, "Hello")
	}
	if string(buf2) != ", World" {
		t.Errorf("second slice = %q, want %q", buf2, ", World")
	}
}

func TestPreadvDoesNotMoveCursor(t *testing.T) {
	v, cleanup := newTestBackend(t)
	defer cleanup()

	f, err := v.OpenFile(vfs.RootDir, mustPath(t, "pread.txt"), vfs.FileOpenOptions{Mode: vfs.ReadWrite, Create: true})
	if err != nil {
		t.Fatal("openFile failed:", err)
	}
	defer v.CloseFile(f)

	if _, err := v.Writev(f, [][]byte{[]byte("abcdefghij")}); err != nil {
		t.Fatal("writev failed:", err)
	}
	if _, err := v.Seek(f, 2, vfs.SeekSet); err != nil {
		t.Fatal("seek failed:", err)
	}

	preBuf := make([]byte, 3)
	if _, err := v.Preadv(f, [][]byte{preBuf}, 5); err != nil {
		t.Fatal("preadv failed:", err)
	}
	if string(preBuf) != "fgh" {
		t.Errorf("preadv data = %q, want %q", preBuf, "fgh")
	}

	readBuf := make([]byte, 3)
	if _, err := v.Readv(f, [][]byte{readBuf}); err != nil {
		t.Fatal("readv failed:", err)
	}
	if string(readBuf) != "cde" {
		t.Errorf("readv after preadv = %q, want %q (cursor should be unaffected by preadv)", readBuf, "cde")
	}
}

func TestDirectoryCreateIterateDelete(t *testing.T) {
	v, cleanup := newTestBackend(t)
	defer cleanup()

	sub, err := v.OpenDir(vfs.RootDir, mustPath(t, "sub"), vfs.DirOpenOptions{Create: true, Iterate: true})
	if err != nil {
		t.Fatal("openDir with create failed:", err)
	}
	defer v.CloseDir(sub)

	for _, name := range []string{"a.txt", "b.txt"} {
		f, err := v.OpenFile(sub, mustPath(t, name), vfs.FileOpenOptions{Mode: vfs.WriteOnly, Create: true})
		if err != nil {
			t.Fatalf("openFile(%q) failed: %v", name, err)
		}
		v.CloseFile(f)
	}

	it, err := v.Iterate(sub)
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
		if entry.Stat.Kind != vfs.KindFile {
			t.Errorf("entry %q reported Kind %v, want KindFile", entry.Basename, entry.Stat.Kind)
		}
	}
	if !seen["a.txt"] || !seen["b.txt"] {
		t.Errorf("iteration saw %v, want both a.txt and b.txt", seen)
	}

	if err := v.DeleteFile(sub, mustPath(t, "a.txt")); err != nil {
		t.Fatal("deleteFile failed:", err)
	}
	if _, err := v.Stat(sub, mustPath(t, "a.txt")); err == nil {
		t.Error("stat succeeded after deleteFile, want FileNotFound")
	}
}
