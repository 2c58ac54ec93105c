package vfs

import "testing"

func TestValidateRejectsTraversal(t *testing.T) {
	cases := []string{"../x", "a/../b", "a/..", ".."}
	for _, c := range cases {
		if err := Validate(c); err == nil {
			t.Errorf("Validate(%q) succeeded, want InvalidPath", c)
		}
	}
}

func TestValidateRejectsDoubleSlash(t *testing.T) {
	if err := Validate("a//b"); err == nil {
		t.Error("Validate(\"a//b\") succeeded, want InvalidPath")
	}
}

func TestValidateRejectsDotSegment(t *testing.T) {
	if err := Validate("a/./b"); err == nil {
		t.Error("Validate(\"a/./b\") succeeded, want InvalidPath")
	}
}

func TestValidateRejectsBackslash(t *testing.T) {
	if err := Validate(`a\b`); err == nil {
		t.Error(`Validate("a\\b") succeeded, want InvalidPath`)
	}
}

func TestValidateAcceptsOrdinaryPaths(t *testing.T) {
	for _, c := range []string{"a/b", "/a/b", "a", "/"} {
		if err := Validate(c); err != nil {
			t.Errorf("Validate(%q) failed: %v", c, err)
		}
	}
}

func TestResolveAbsoluteAndRelative(t *testing.T) {
	p, err := Resolve("/a/b")
	if err != nil {
		t.Fatal("Resolve failed:", err)
	}
	if !p.IsAbsolute() {
		t.Error("expected /a/b to be absolute")
	}
	if p.Relative() != "a/b" {
		t.Errorf("Relative() = %q, want %q", p.Relative(), "a/b")
	}

	p, err = Resolve("a/b")
	if err != nil {
		t.Fatal("Resolve failed:", err)
	}
	if p.IsAbsolute() {
		t.Error("expected a/b to be relative")
	}
	if p.Relative() != "a/b" {
		t.Errorf("Relative() = %q, want %q", p.Relative(), "a/b")
	}
}

func TestResolveRootRelativeIsEmpty(t *testing.T) {
	p, err := Resolve("/")
	if err != nil {
		t.Fatal("Resolve failed:", err)
	}
	if p.Relative() != "" {
		t.Errorf("Relative() of root = %q, want empty string", p.Relative())
	}
}

func TestResolveCleanReducesSegments(t *testing.T) {
	p, err := ResolveClean("/a/b/../c/./d")
	if err != nil {
		t.Fatal("ResolveClean failed:", err)
	}
	if p.String() != "/a/c/d" {
		t.Errorf("ResolveClean result = %q, want %q", p.String(), "/a/c/d")
	}
}

func TestResolveCleanRejectsEscape(t *testing.T) {
	if _, err := ResolveClean("a/../../b"); err == nil {
		t.Error("ResolveClean(\"a/../../b\") succeeded, want InvalidPath")
	}
	if _, err := ResolveClean("/../b"); err == nil {
		t.Error("ResolveClean(\"/../b\") succeeded, want InvalidPath")
	}
}

func TestJoinComposesPaths(t *testing.T) {
	tail, err := Resolve("b/c")
	if err != nil {
		t.Fatal("Resolve failed:", err)
	}
	if got := Join("a", tail); got != "a/b/c" {
		t.Errorf("Join(%q, %q) = %q, want %q", "a", tail.String(), got, "a/b/c")
	}
	if got := Join("", tail); got != "b/c" {
		t.Errorf("Join(\"\", %q) = %q, want %q", tail.String(), got, "b/c")
	}
}
