package vfs

import "github.com/google/uuid"

// Backend is the polymorphic dispatch surface that every concrete or
// composing filesystem implements: passthrough over the host, overlay
// mount tables, the tagged multiplexer, and the read-only archive reader
// all satisfy it, and the VFS facade below is the only thing that calls
// into it directly. A composing backend (overlay, multiplexer) forwards by
// calling methods on the child's *VFS* rather than its raw Backend, so that
// the child's own capability set is honored without the composing backend
// re-checking permission bits itself.
//
// Every path argument is already a validated, relative string (the facade
// has stripped any leading slash and rebound an absolute or root-sentinel
// Dir to the VFS's current logical root before the call ever reaches a
// backend). A backend is free to interpret "" as "the directory itself."
type Backend interface {
	// Permissions reports the capability set this backend grants. The
	// facade consults it before dispatching any other method.
	Permissions() Permissions

	OpenDir(parent Dir, sub string, options DirOpenOptions) (Dir, error)
	CloseDir(d Dir)
	DeleteDir(parent Dir, sub string, options DirDeleteOptions) error
	Stat(parent Dir, sub string) (Stat, error)
	Iterate(d Dir) (Iterator, error)

	OpenFile(parent Dir, sub string, options FileOpenOptions) (File, error)
	CloseFile(f File)
	DeleteFile(parent Dir, sub string) error
	Seek(f File, offset uint64, whence Whence) (uint64, error)
	Readv(f File, buffers [][]byte) (int, error)
	Preadv(f File, buffers [][]byte, offset uint64) (int, error)
	Writev(f File, buffers [][]byte) (int, error)
	Pwritev(f File, buffers [][]byte, offset uint64) (int, error)

	// Deinit releases any backend-wide resources (host root descriptor,
	// archive file handle, handles opened against child VFS instances).
	// Composing backends borrow their children and do not deinit them. It
	// is called once, when the owning VFS is torn down.
	Deinit() error
}

// VFS is the facade every caller interacts with. It owns a single Backend,
// gates every operation against that backend's declared Permissions, and
// implements root-rebinding: an operation addressed to RootDir, or to an
// absolute SafePath, is redirected to the VFS's current logical root
// (itself RootDir until Chroot installs a real one).
type VFS struct {
	backend Backend
	perms   Permissions
	root    Dir
	id      string
}

// New wraps backend in a facade, capturing its declared permissions once at
// construction. id is a caller-supplied correlation identifier (typically a
// uuid), reported by ID; the facade itself does not log it. It may be
// empty.
func New(backend Backend, id string) *VFS {
	return &VFS{backend: backend, perms: backend.Permissions(), root: RootDir, id: id}
}

// NewAuto is New with a freshly generated uuid as the correlation
// identifier, for callers that don't otherwise need to choose one (the
// common case outside of tests, which usually want a fixed id).
func NewAuto(backend Backend) *VFS {
	return New(backend, uuid.NewString())
}

// ID returns the correlation identifier this facade was constructed with.
func (v *VFS) ID() string {
	return v.id
}

// CurrentRoot returns the Dir currently installed as this facade's logical
// root (RootDir if no Chroot has been performed). Composing backends that
// forward an iteration call need this: unlike every other VFS method,
// Iterate does not rebind RootDir to the logical root, so a composer must
// substitute it explicitly when forwarding to a child that has chrooted.
func (v *VFS) CurrentRoot() Dir {
	return v.root
}

// effectiveDir rebinds d to the facade's current logical root whenever d is
// the root sentinel or p is absolute; otherwise d passes through unchanged.
func (v *VFS) effectiveDir(d Dir, p SafePath) Dir {
	if d == RootDir || p.IsAbsolute() {
		return v.root
	}
	return d
}

func permissionDenied(op string) error {
	return &Error{Kind: PermissionDenied, Op: op}
}

// Chroot installs a new logical root for this facade. If subpath is the
// zero SafePath, the logical root reverts to the backend's true root
// (RootDir) and any previously installed non-sentinel root is closed
// first. Otherwise subpath is opened relative to dir (rebound the usual
// way) with iteration enabled, and becomes the new logical root; the
// previous non-sentinel root, if any, is closed after the new one opens
// successfully.
func (v *VFS) Chroot(dir Dir, subpath SafePath) error {
	const op = "chroot"
	if subpath.IsEmpty() {
		if v.root != RootDir {
			v.backend.CloseDir(v.root)
		}
		v.root = RootDir
		return nil
	}
	if !v.perms.Stat {
		return permissionDenied(op)
	}
	eff := v.effectiveDir(dir, subpath)
	newRoot, err := v.backend.OpenDir(eff, subpath.Relative(), DirOpenOptions{Iterate: true})
	if err != nil {
		return err
	}
	if v.root != RootDir {
		v.backend.CloseDir(v.root)
	}
	v.root = newRoot
	return nil
}

// OpenDir opens the directory at path relative to dir (rebound per the
// usual root/absolute-path rules).
func (v *VFS) OpenDir(dir Dir, path SafePath, options DirOpenOptions) (Dir, error) {
	const op = "openDir"
	if options.Create && !v.perms.Create {
		return 0, permissionDenied(op)
	}
	eff := v.effectiveDir(dir, path)
	return v.backend.OpenDir(eff, path.Relative(), options)
}

// CloseDir releases a directory handle previously returned by OpenDir or
// Chroot. It is always permitted and never fails.
func (v *VFS) CloseDir(d Dir) {
	if d == RootDir {
		return
	}
	v.backend.CloseDir(d)
}

// DeleteDir removes the directory at path relative to dir.
func (v *VFS) DeleteDir(dir Dir, path SafePath, options DirDeleteOptions) error {
	const op = "deleteDir"
	if !v.perms.Delete {
		return permissionDenied(op)
	}
	eff := v.effectiveDir(dir, path)
	return v.backend.DeleteDir(eff, path.Relative(), options)
}

// Stat reports metadata for the entry at path relative to dir.
func (v *VFS) Stat(dir Dir, path SafePath) (Stat, error) {
	const op = "stat"
	if !v.perms.Stat {
		return Stat{}, permissionDenied(op)
	}
	eff := v.effectiveDir(dir, path)
	return v.backend.Stat(eff, path.Relative())
}

// Iterate returns an Iterator over the children of d, which must have been
// opened with DirOpenOptions.Iterate set.
func (v *VFS) Iterate(d Dir) (Iterator, error) {
	const op = "iterate"
	if !v.perms.Iterate {
		return nil, permissionDenied(op)
	}
	return v.backend.Iterate(d)
}

// OpenFile opens the file at path relative to dir.
func (v *VFS) OpenFile(dir Dir, path SafePath, options FileOpenOptions) (File, error) {
	const op = "openFile"
	if options.Create && !v.perms.Create {
		return 0, permissionDenied(op)
	}
	if options.Mode == ReadOnly || options.Mode == ReadWrite {
		if !v.perms.Read {
			return 0, permissionDenied(op)
		}
	}
	if options.Mode == WriteOnly || options.Mode == ReadWrite {
		if !v.perms.Write {
			return 0, permissionDenied(op)
		}
	}
	eff := v.effectiveDir(dir, path)
	return v.backend.OpenFile(eff, path.Relative(), options)
}

// CloseFile releases a file handle previously returned by OpenFile. It is
// always permitted and never fails.
func (v *VFS) CloseFile(f File) {
	v.backend.CloseFile(f)
}

// DeleteFile removes the file at path relative to dir.
func (v *VFS) DeleteFile(dir Dir, path SafePath) error {
	const op = "deleteFile"
	if !v.perms.Delete {
		return permissionDenied(op)
	}
	eff := v.effectiveDir(dir, path)
	return v.backend.DeleteFile(eff, path.Relative())
}

// Seek repositions f's cursor.
func (v *VFS) Seek(f File, offset uint64, whence Whence) (uint64, error) {
	const op = "seek"
	if !v.perms.Stat {
		return 0, permissionDenied(op)
	}
	return v.backend.Seek(f, offset, whence)
}

// Readv reads into buffers from f's current cursor, advancing it.
func (v *VFS) Readv(f File, buffers [][]byte) (int, error) {
	const op = "readv"
	if !v.perms.Read {
		return 0, permissionDenied(op)
	}
	return v.backend.Readv(f, buffers)
}

// Preadv reads into buffers at offset without disturbing f's cursor.
func (v *VFS) Preadv(f File, buffers [][]byte, offset uint64) (int, error) {
	const op = "preadv"
	if !v.perms.Read {
		return 0, permissionDenied(op)
	}
	return v.backend.Preadv(f, buffers, offset)
}

// Writev writes buffers at f's current cursor, advancing it.
func (v *VFS) Writev(f File, buffers [][]byte) (int, error) {
	const op = "writev"
	if !v.perms.Write {
		return 0, permissionDenied(op)
	}
	return v.backend.Writev(f, buffers)
}

// Pwritev writes buffers at offset without disturbing f's cursor.
func (v *VFS) Pwritev(f File, buffers [][]byte, offset uint64) (int, error) {
	const op = "pwritev"
	if !v.perms.Write {
		return 0, permissionDenied(op)
	}
	return v.backend.Pwritev(f, buffers, offset)
}

// Walk starts an unconditional depth-first walk rooted at dir, which the
// caller has already opened with iteration enabled and keeps ownership of.
func (v *VFS) Walk(dir Dir) (*Walker, error) {
	const op = "walk"
	if !v.perms.Iterate {
		return nil, permissionDenied(op)
	}
	return NewWalker(v, dir, "")
}

// WalkSelectively starts a selective depth-first walk rooted at dir, under
// the same ownership rule as Walk.
func (v *VFS) WalkSelectively(dir Dir) (*SelectiveWalker, error) {
	const op = "walkSelectively"
	if !v.perms.Iterate {
		return nil, permissionDenied(op)
	}
	return NewSelectiveWalker(v, dir, "")
}

// Deinit tears down the underlying backend.
func (v *VFS) Deinit() error {
	if v.root != RootDir {
		v.backend.CloseDir(v.root)
		v.root = RootDir
	}
	return v.backend.Deinit()
}
