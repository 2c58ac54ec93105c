package vfs

import (
	"errors"
	"testing"
)

func TestErrorIsMatchesByKindOnly(t *testing.T) {
	a := NewError("openFile", FileNotFound)
	b := NewError("stat", FileNotFound)
	if !errors.Is(a, b) {
		t.Error("errors with the same Kind did not match via errors.Is")
	}
	if errors.Is(a, NewError("openFile", NotDir)) {
		t.Error("errors with different Kinds matched via errors.Is")
	}
}

func TestErrorIsSentinel(t *testing.T) {
	err := WrapError("openFile", PermissionDenied, errors.New("host refused"))
	if !errors.Is(err, ErrPermissionDenied) {
		t.Error("wrapped error did not match ErrPermissionDenied sentinel")
	}
}

func TestWrapErrorPreservesCause(t *testing.T) {
	cause := errors.New("disk is on fire")
	err := WrapError("readv", Unexpected, cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap chain lost the wrapped cause")
	}
}
