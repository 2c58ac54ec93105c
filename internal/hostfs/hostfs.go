// Package hostfs is a thin adapter over the host operating system's
// directory-relative ("*at") syscalls, consumed by the passthrough VFS
// backend. It knows nothing about VFS handles, capabilities, or the
// Harha error taxonomy; it returns plain host errors, which its caller
// translates at the backend boundary.
package hostfs

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// maxBatchIovecs bounds how many buffers a single Readv/Writev/Preadv/
// Pwritev host call accepts at once; callers with more buffers issue
// multiple calls.
const maxBatchIovecs = 16

// Handle wraps a directory file descriptor opened with O_NOFOLLOW,
// usable with the unix *at family of calls. It does not wrap a regular
// file; OpenFile on a file yields a *File instead.
type Handle struct {
	fd   int
	file *os.File
}

// OpenRoot opens path as a directory to serve as a passthrough backend's
// root. The caller owns the returned Handle and must Close it.
func OpenRoot(path string) (*Handle, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	if err := ensureDirFD(fd); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &Handle{fd: fd, file: os.NewFile(uintptr(fd), path)}, nil
}

func ensureDirFD(fd int) error {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return errors.Wrap(err, "unable to stat descriptor")
	}
	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return errors.New("path is not a directory")
	}
	return nil
}

// Fd returns the raw descriptor, stable for the lifetime of the Handle.
// The passthrough backend does not use it for its public handle ids,
// which come from its own counters.
func (h *Handle) Fd() int {
	return h.fd
}

// Close closes the directory descriptor.
func (h *Handle) Close() error {
	return h.file.Close()
}

// ensureValidComponent rejects a single path component referencing the
// current or parent directory, or containing a separator — mirroring the
// guard every *at call needs since these calls interpret any separator
// themselves.
func ensureValidComponent(name string) error {
	if name == "." || name == ".." {
		return errors.New("component is a directory reference")
	}
	if strings.IndexByte(name, '/') != -1 {
		return errors.New("path separator appears in component")
	}
	return nil
}

// OpenDir opens the subdirectory named name within h. If create is true
// and the subdirectory does not exist, it is created and then opened.
func (h *Handle) OpenDir(name string, create bool) (*Handle, error) {
	if name == "" {
		return h.reopenSelf()
	}
	if err := ensureValidComponent(name); err != nil {
		return nil, err
	}

	fd, err := unix.Openat(h.fd, name, unix.O_RDONLY|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err != nil {
		if create && err == unix.ENOENT {
			if mkErr := unix.Mkdirat(h.fd, name, 0700); mkErr != nil && mkErr != unix.EEXIST {
				return nil, mkErr
			}
			fd, err = unix.Openat(h.fd, name, unix.O_RDONLY|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := ensureDirFD(fd); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &Handle{fd: fd, file: os.NewFile(uintptr(fd), name)}, nil
}

// reopenSelf duplicates h's descriptor, used when a relative path
// resolves to the directory itself (the empty-string subpath case).
func (h *Handle) reopenSelf() (*Handle, error) {
	fd, err := unix.Openat(h.fd, ".", unix.O_RDONLY|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return &Handle{fd: fd, file: os.NewFile(uintptr(fd), ".")}, nil
}

// ResolveParent walks every component of rel except the last, opening
// each as an intermediate directory, and returns the final parent handle
// (which may be h itself), the leaf component name, and a cleanup
// function the caller must invoke once done with the parent (it closes
// every intermediate directory this call opened, including the parent if
// it isn't h).
func (h *Handle) ResolveParent(rel string) (parent *Handle, leaf string, cleanup func(), err error) {
	if rel == "" {
		return h, "", func() {}, nil
	}

	segments := strings.Split(rel, "/")
	leaf = segments[len(segments)-1]

	cur := h
	var opened []*Handle
	abort := func() {
		for i := len(opened) - 1; i >= 0; i-- {
			opened[i].Close()
		}
	}

	for _, seg := range segments[:len(segments)-1] {
		next, openErr := cur.OpenDir(seg, false)
		if openErr != nil {
			abort()
			return nil, "", nil, openErr
		}
		opened = append(opened, next)
		cur = next
	}

	return cur, leaf, func() {
		for i := len(opened) - 1; i >= 0; i-- {
			opened[i].Close()
		}
	}, nil
}

// Mkdir creates a directory named name within h.
func (h *Handle) Mkdir(name string) error {
	if err := ensureValidComponent(name); err != nil {
		return err
	}
	return unix.Mkdirat(h.fd, name, 0700)
}

// Unlink removes the file named name within h.
func (h *Handle) Unlink(name string) error {
	if err := ensureValidComponent(name); err != nil {
		return err
	}
	return unix.Unlinkat(h.fd, name, 0)
}

// Rmdir removes the empty subdirectory named name within h.
func (h *Handle) Rmdir(name string) error {
	if err := ensureValidComponent(name); err != nil {
		return err
	}
	return unix.Unlinkat(h.fd, name, unix.AT_REMOVEDIR)
}

// RemoveTree recursively removes the subdirectory named name within h,
// depth-first: every child is removed before its parent directory.
func (h *Handle) RemoveTree(name string) error {
	sub, err := h.OpenDir(name, false)
	if err != nil {
		return err
	}
	defer sub.Close()

	names, err := sub.ReadNames()
	if err != nil {
		return err
	}
	for _, child := range names {
		info, statErr := sub.Stat(child)
		if statErr != nil {
			if IsNotExist(statErr) {
				continue
			}
			return statErr
		}
		if info.IsDir {
			if err := sub.RemoveTree(child); err != nil {
				return err
			}
		} else if err := sub.Unlink(child); err != nil {
			return err
		}
	}

	return h.Rmdir(name)
}

// ReadNames returns the base names of h's directory contents, excluding
// "." and "..". It resets the directory's read position afterward so
// repeated calls observe the current contents.
func (h *Handle) ReadNames() ([]string, error) {
	names, err := h.file.Readdirnames(0)
	if err != nil {
		return nil, err
	}
	if _, err := unix.Seek(h.fd, 0, 0); err != nil {
		return nil, errors.Wrap(err, "unable to reset directory read position")
	}

	results := names[:0]
	for _, name := range names {
		if name == "." || name == ".." {
			continue
		}
		results = append(results, name)
	}
	return results, nil
}

// Rename performs an atomic rename from name (within h) to targetName
// (within targetParent).
func Rename(sourceParent *Handle, name string, targetParent *Handle, targetName string) error {
	return unix.Renameat(sourceParent.fd, name, targetParent.fd, targetName)
}

// IsCrossDevice reports whether err represents a cross-device rename
// failure.
func IsCrossDevice(err error) bool {
	return err == unix.EXDEV
}
