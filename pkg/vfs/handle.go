package vfs

// Dir is an opaque directory handle. Its encoding is a backend's private
// choice (a private counter in the passthrough and overlay backends, a bit-packed
// tag+inner handle in the multiplexer, a bit-packed kind+index+generation in
// the archive backend). The only value with reserved meaning is RootDir.
type Dir uint32

// RootDir is the reserved Dir value meaning "this VFS's current logical
// root," as installed by Chroot or, absent any Chroot, the backend's true
// root. It is never a backend-allocated handle.
const RootDir Dir = 0

// File is an opaque file handle. Unlike Dir there is no reserved value;
// every File must come from a successful OpenFile call.
type File uint32

// DirOpenOptions controls directory creation and iteration semantics for
// OpenDir.
type DirOpenOptions struct {
	// Iterate requests that the resulting Dir be usable with Iterate.
	Iterate bool
	// Create requests that the directory be created if it does not exist.
	Create bool
}

// DirDeleteOptions controls directory removal semantics for DeleteDir.
type DirDeleteOptions struct {
	// Recursive requests removal of a non-empty directory tree. Without it,
	// DeleteDir on a non-empty directory fails with DirNotEmpty.
	Recursive bool
}

// FileMode selects the read/write intent of an OpenFile call.
type FileMode int

const (
	// ReadOnly opens a file for reading only.
	ReadOnly FileMode = iota
	// WriteOnly opens a file for writing only.
	WriteOnly
	// ReadWrite opens a file for both reading and writing.
	ReadWrite
)

// FileOpenOptions controls file creation and access-mode semantics for
// OpenFile.
type FileOpenOptions struct {
	// Mode selects which of read/write access is requested.
	Mode FileMode
	// Create requests that the file be created if it does not exist.
	Create bool
}

// Whence selects the origin for a Seek operation.
type Whence int

const (
	// SeekSet seeks to an absolute offset.
	SeekSet Whence = iota
	// SeekForward seeks forward from the current cursor, saturating at the
	// largest uint64 offset; the result is not clamped to the file size.
	SeekForward
	// SeekBackward seeks backward from the current cursor, saturating at
	// zero.
	SeekBackward
	// SeekFromEnd seeks to size-delta, saturating at zero.
	SeekFromEnd
)

// Entry is a single directory listing result, as produced by Iterator.Next
// and consumed by the walker.
type Entry struct {
	Basename string
	Stat     Stat
}
