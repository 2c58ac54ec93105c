package vfs

import "testing"

func TestWalkGlobMatchesPattern(t *testing.T) {
	b := newMemBackend()
	v := New(b, "test")

	matches, err := v.WalkGlob(RootDir, "**/*.txt")
	if err != nil {
		t.Fatal("WalkGlob failed:", err)
	}

	var paths []string
	for _, m := range matches {
		paths = append(paths, m.Path)
	}

	want := map[string]bool{
		"file1.txt":           true,
		"sub/file2.txt":       true,
		"sub/nested/file3.txt": true,
	}
	if len(paths) != len(want) {
		t.Fatalf("WalkGlob matches = %v, want %d entries matching %v", paths, len(want), want)
	}
	for _, p := range paths {
		if !want[p] {
			t.Errorf("unexpected match %q", p)
		}
	}
}

func TestWalkGlobPrunesUnrelatedSubtree(t *testing.T) {
	b := newMemBackend()
	v := New(b, "test")

	matches, err := v.WalkGlob(RootDir, "sub/*.txt")
	if err != nil {
		t.Fatal("WalkGlob failed:", err)
	}
	if len(matches) != 1 || matches[0].Path != "sub/file2.txt" {
		t.Fatalf("WalkGlob(sub/*.txt) = %v, want [sub/file2.txt]", matches)
	}
}

func TestWalkGlobRejectsInvalidPattern(t *testing.T) {
	b := newMemBackend()
	v := New(b, "test")

	if _, err := v.WalkGlob(RootDir, "["); err == nil {
		t.Error("WalkGlob with an invalid pattern succeeded, want an error")
	}
}
