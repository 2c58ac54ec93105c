package vfs

import (
	"github.com/pkg/errors"
)

// Kind identifies a class of error from the Harha error taxonomy. Backends
// translate host- or format-specific failures into one of these classes at
// the backend boundary; nothing above a backend re-maps them.
type Kind int

const (
	// Unexpected indicates that a host or backend error occurred that isn't
	// meaningful to expose in more specific terms.
	Unexpected Kind = iota
	// Unsupported indicates that the backend does not implement the
	// requested operation.
	Unsupported
	// PermissionDenied indicates that either the relevant capability bit was
	// unset on the VFS or that the host refused the operation.
	PermissionDenied
	// OutOfMemory indicates an allocator failure.
	OutOfMemory
	// FileNotFound indicates that the requested path does not exist.
	FileNotFound
	// NotDir indicates that a path component expected to be a directory is
	// not one.
	NotDir
	// IsDir indicates that a path expected to be a file is a directory.
	IsDir
	// PathAlreadyExists indicates a creation conflict.
	PathAlreadyExists
	// DirNotEmpty indicates that a non-recursive directory removal target
	// has children.
	DirNotEmpty
	// ResourceLimitReached indicates host descriptor, quota, or space
	// exhaustion unrelated to the specific write being performed.
	ResourceLimitReached
	// NotOpenForReading indicates that a handle was not opened with read
	// capability.
	NotOpenForReading
	// NotOpenForWriting indicates that a handle was not opened with write
	// capability.
	NotOpenForWriting
	// NotOpenForIteration indicates that a Dir handle was not opened with
	// iterate capability.
	NotOpenForIteration
	// Unseekable indicates that a handle does not support seeking.
	Unseekable
	// NoSpaceLeft indicates a write-time space failure.
	NoSpaceLeft
	// InvalidPath indicates that a path failed SafePath validation.
	InvalidPath
)

// String renders a human-readable name for a Kind.
func (k Kind) String() string {
	switch k {
	case Unexpected:
		return "unexpected error"
	case Unsupported:
		return "unsupported operation"
	case PermissionDenied:
		return "permission denied"
	case OutOfMemory:
		return "out of memory"
	case FileNotFound:
		return "file not found"
	case NotDir:
		return "not a directory"
	case IsDir:
		return "is a directory"
	case PathAlreadyExists:
		return "path already exists"
	case DirNotEmpty:
		return "directory not empty"
	case ResourceLimitReached:
		return "resource limit reached"
	case NotOpenForReading:
		return "handle not open for reading"
	case NotOpenForWriting:
		return "handle not open for writing"
	case NotOpenForIteration:
		return "handle not open for iteration"
	case Unseekable:
		return "handle is not seekable"
	case NoSpaceLeft:
		return "no space left"
	case InvalidPath:
		return "invalid path"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type returned by every operation in this
// module. It carries a Kind so that callers can branch on error class with
// errors.Is/errors.As instead of string matching, and it wraps an optional
// cause using github.com/pkg/errors so that the underlying host or format
// error survives for logging.
type Error struct {
	// Kind is the taxonomy class of this error.
	Kind Kind
	// Op names the operation that failed (e.g. "openFile", "readv").
	Op string
	// cause is the underlying error, if any.
	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return e.Op + ": " + e.Kind.String() + ": " + e.cause.Error()
	}
	return e.Op + ": " + e.Kind.String()
}

// Unwrap allows errors.Is/errors.As to see through to the cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, vfs.NewError(op, vfs.FileNotFound)) works without requiring
// identical Op or cause.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// NewError constructs an *Error with no wrapped cause.
func NewError(op string, kind Kind) *Error {
	return &Error{Op: op, Kind: kind}
}

// WrapError constructs an *Error wrapping cause with context via
// github.com/pkg/errors, mirroring the reference stack's error-wrapping
// idiom.
func WrapError(op string, kind Kind, cause error) *Error {
	return &Error{Op: op, Kind: kind, cause: errors.Wrap(cause, kind.String())}
}

// Sentinel errors for Kind values that carry no operation-specific context,
// useful for errors.Is comparisons against library-level constants.
var (
	ErrPermissionDenied = &Error{Kind: PermissionDenied}
	ErrInvalidPath      = &Error{Kind: InvalidPath}
	ErrUnsupported      = &Error{Kind: Unsupported}
)
