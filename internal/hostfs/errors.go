package hostfs

import (
	"errors"

	"golang.org/x/sys/unix"
)

// IsNotExist reports whether err indicates the target path is absent.
func IsNotExist(err error) bool {
	return errors.Is(err, unix.ENOENT)
}

// IsNotDir reports whether err indicates a path component that should
// have been a directory wasn't one.
func IsNotDir(err error) bool {
	return errors.Is(err, unix.ENOTDIR)
}

// IsDirErr reports whether err indicates the target was unexpectedly a
// directory.
func IsDirErr(err error) bool {
	return errors.Is(err, unix.EISDIR)
}

// IsExist reports whether err indicates a creation conflict.
func IsExist(err error) bool {
	return errors.Is(err, unix.EEXIST)
}

// IsNotEmpty reports whether err indicates a non-empty-directory removal
// failure.
func IsNotEmpty(err error) bool {
	return errors.Is(err, unix.ENOTEMPTY)
}

// IsPermission reports whether err indicates the host refused the
// operation on permission grounds.
func IsPermission(err error) bool {
	return errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM)
}

// IsNoSpace reports whether err indicates the host ran out of storage
// space.
func IsNoSpace(err error) bool {
	return errors.Is(err, unix.ENOSPC)
}

// IsResourceLimit reports whether err indicates a descriptor or quota
// exhaustion unrelated to the specific write being performed.
func IsResourceLimit(err error) bool {
	return errors.Is(err, unix.EMFILE) || errors.Is(err, unix.ENFILE) || errors.Is(err, unix.EDQUOT)
}
