// Package passthrough implements a Harha VFS backend over a host
// directory tree, built on the *at-family syscall adapter in
// internal/hostfs.
package passthrough

import (
	"math"

	"github.com/sorvi-platform/harha/internal/hostfs"
	"github.com/sorvi-platform/harha/pkg/logging"
	"github.com/sorvi-platform/harha/pkg/vfs"
)

type dirEntry struct {
	handle *hostfs.Handle
}

type fileEntry struct {
	handle *hostfs.File
	cursor uint64
}

// Backend is a passthrough VFS backend. Its Dir and File handles are
// allocated from private monotonic counters rather than the host file
// descriptor values themselves, so that a host that legitimately reuses
// descriptor 0 for a directory can never collide with the VFS root
// sentinel.
type Backend struct {
	root              *hostfs.Handle
	closeRootOnDeinit bool

	dirs     map[vfs.Dir]*dirEntry
	files    map[vfs.File]*fileEntry
	nextDir  vfs.Dir
	nextFile vfs.File

	logger *logging.Logger
}

// WithLogger attaches a logger to the backend, used to record host errors
// at Debug level before they're translated into the vfs error taxonomy.
// It returns the backend for chaining at construction time.
func (b *Backend) WithLogger(logger *logging.Logger) *Backend {
	b.logger = logger
	return b
}

// New wraps an already-open host directory as the backend's root. The
// caller retains ownership of root; Deinit will not close it.
func New(root *hostfs.Handle) *Backend {
	return newBackend(root, false)
}

// NewPath opens subpath relative to dir as the backend's root. The
// resulting handle is owned by the backend and closed on Deinit.
func NewPath(dir *hostfs.Handle, subpath string) (*Backend, error) {
	parent, leaf, cleanup, err := dir.ResolveParent(subpath)
	if err != nil {
		return nil, translateErr("init", err)
	}
	defer cleanup()

	root, err := parent.OpenDir(leaf, false)
	if err != nil {
		return nil, translateErr("init", err)
	}
	return newBackend(root, true), nil
}

func newBackend(root *hostfs.Handle, closeRootOnDeinit bool) *Backend {
	return &Backend{
		root:              root,
		closeRootOnDeinit: closeRootOnDeinit,
		dirs:              make(map[vfs.Dir]*dirEntry),
		files:             make(map[vfs.File]*fileEntry),
		nextDir:           1,
		nextFile:          1,
	}
}

func (b *Backend) allocDir() vfs.Dir {
	id := b.nextDir
	b.nextDir++
	if b.nextDir == vfs.RootDir {
		b.nextDir++
	}
	return id
}

func (b *Backend) allocFile() vfs.File {
	id := b.nextFile
	b.nextFile++
	return id
}

func (b *Backend) resolveDir(parent vfs.Dir) (*hostfs.Handle, error) {
	if parent == vfs.RootDir {
		return b.root, nil
	}
	e, ok := b.dirs[parent]
	if !ok {
		return nil, vfs.NewError("resolveDir", vfs.Unexpected)
	}
	return e.handle, nil
}

func (b *Backend) fileEntry(f vfs.File) (*fileEntry, bool) {
	e, ok := b.files[f]
	return e, ok
}

// Permissions reports full capability: the passthrough backend imposes
// no restriction of its own, leaving that to the VFS facade wrapping it.
func (b *Backend) Permissions() vfs.Permissions {
	return vfs.AllPermissions()
}

func (b *Backend) OpenDir(parent vfs.Dir, sub string, options vfs.DirOpenOptions) (vfs.Dir, error) {
	base, err := b.resolveDir(parent)
	if err != nil {
		return 0, err
	}
	parentHandle, leaf, cleanup, err := base.ResolveParent(sub)
	if err != nil {
		return 0, b.translateErr("openDir", err)
	}
	defer cleanup()

	h, err := parentHandle.OpenDir(leaf, options.Create)
	if err != nil {
		return 0, b.translateErr("openDir", err)
	}
	id := b.allocDir()
	b.dirs[id] = &dirEntry{handle: h}
	return id, nil
}

func (b *Backend) CloseDir(d vfs.Dir) {
	if d == vfs.RootDir {
		return
	}
	e, ok := b.dirs[d]
	if !ok {
		return
	}
	e.handle.Close()
	delete(b.dirs, d)
}

func (b *Backend) DeleteDir(parent vfs.Dir, sub string, options vfs.DirDeleteOptions) error {
	base, err := b.resolveDir(parent)
	if err != nil {
		return err
	}
	parentHandle, leaf, cleanup, err := base.ResolveParent(sub)
	if err != nil {
		return b.translateErr("deleteDir", err)
	}
	defer cleanup()

	if options.Recursive {
		err = parentHandle.RemoveTree(leaf)
	} else {
		err = parentHandle.Rmdir(leaf)
	}
	if err != nil {
		return b.translateErr("deleteDir", err)
	}
	return nil
}

func (b *Backend) Stat(parent vfs.Dir, sub string) (vfs.Stat, error) {
	base, err := b.resolveDir(parent)
	if err != nil {
		return vfs.Stat{}, err
	}
	parentHandle, leaf, cleanup, err := base.ResolveParent(sub)
	if err != nil {
		return vfs.Stat{}, b.translateErr("stat", err)
	}
	defer cleanup()

	info, err := parentHandle.Stat(leaf)
	if err != nil {
		return vfs.Stat{}, b.translateErr("stat", err)
	}
	return statFromInfo(info), nil
}

type dirIterator struct {
	handle *hostfs.Handle
	names  []string
	pos    int
	logger *logging.Logger
}

func (it *dirIterator) translateErr(op string, err error) error {
	wrapped := translateErr(op, err)
	it.logger.Debugf("%s: %v", op, err)
	return wrapped
}

func (b *Backend) Iterate(d vfs.Dir) (vfs.Iterator, error) {
	h, err := b.resolveDir(d)
	if err != nil {
		return nil, err
	}
	names, err := h.ReadNames()
	if err != nil {
		return nil, b.translateErr("iterate", err)
	}
	return &dirIterator{handle: h, names: names, logger: b.logger}, nil
}

// Next skips names that fail SafePath validation and names that have
// disappeared since the listing (transient during concurrent host
// mutation); all other stat failures propagate.
func (it *dirIterator) Next() (*vfs.Entry, error) {
	for it.pos < len(it.names) {
		name := it.names[it.pos]
		it.pos++
		if err := vfs.Validate(name); err != nil {
			continue
		}
		info, err := it.handle.Stat(name)
		if err != nil {
			if hostfs.IsNotExist(err) {
				continue
			}
			return nil, it.translateErr("iterate", err)
		}
		return &vfs.Entry{Basename: name, Stat: statFromInfo(info)}, nil
	}
	return nil, nil
}

func (it *dirIterator) Reset() error {
	names, err := it.handle.ReadNames()
	if err != nil {
		return it.translateErr("iterate", err)
	}
	it.names = names
	it.pos = 0
	return nil
}

func (it *dirIterator) Deinit() {}

func (b *Backend) OpenFile(parent vfs.Dir, sub string, options vfs.FileOpenOptions) (vfs.File, error) {
	base, err := b.resolveDir(parent)
	if err != nil {
		return 0, err
	}
	parentHandle, leaf, cleanup, err := base.ResolveParent(sub)
	if err != nil {
		return 0, b.translateErr("openFile", err)
	}
	defer cleanup()

	mode := hostfs.AccessReadOnly
	switch options.Mode {
	case vfs.WriteOnly:
		mode = hostfs.AccessWriteOnly
	case vfs.ReadWrite:
		mode = hostfs.AccessReadWrite
	}

	f, err := parentHandle.OpenFile(leaf, mode, options.Create)
	if err != nil {
		return 0, b.translateErr("openFile", err)
	}
	id := b.allocFile()
	b.files[id] = &fileEntry{handle: f}
	return id, nil
}

func (b *Backend) CloseFile(f vfs.File) {
	e, ok := b.files[f]
	if !ok {
		return
	}
	e.handle.Close()
	delete(b.files, f)
}

func (b *Backend) DeleteFile(parent vfs.Dir, sub string) error {
	base, err := b.resolveDir(parent)
	if err != nil {
		return err
	}
	parentHandle, leaf, cleanup, err := base.ResolveParent(sub)
	if err != nil {
		return b.translateErr("deleteFile", err)
	}
	defer cleanup()

	if err := parentHandle.Unlink(leaf); err != nil {
		return b.translateErr("deleteFile", err)
	}
	return nil
}

func saturatingAdd(cursor, delta uint64) uint64 {
	if delta > math.MaxUint64-cursor {
		return math.MaxUint64
	}
	return cursor + delta
}

func saturatingSub(cursor, delta uint64) uint64 {
	if delta > cursor {
		return 0
	}
	return cursor - delta
}

func (b *Backend) Seek(f vfs.File, offset uint64, whence vfs.Whence) (uint64, error) {
	e, ok := b.fileEntry(f)
	if !ok {
		return 0, vfs.NewError("seek", vfs.Unexpected)
	}
	switch whence {
	case vfs.SeekSet:
		e.cursor = offset
	case vfs.SeekForward:
		e.cursor = saturatingAdd(e.cursor, offset)
	case vfs.SeekBackward:
		e.cursor = saturatingSub(e.cursor, offset)
	case vfs.SeekFromEnd:
		end, err := e.handle.End()
		if err != nil {
			return 0, b.translateErr("seek", err)
		}
		e.cursor = saturatingSub(uint64(end), offset)
	}
	return e.cursor, nil
}

func (b *Backend) Readv(f vfs.File, buffers [][]byte) (int, error) {
	e, ok := b.fileEntry(f)
	if !ok {
		return 0, vfs.NewError("readv", vfs.Unexpected)
	}
	n, err := e.handle.Preadv(buffers, int64(e.cursor))
	e.cursor += uint64(n)
	if err != nil {
		return n, b.translateErr("readv", err)
	}
	return n, nil
}

func (b *Backend) Preadv(f vfs.File, buffers [][]byte, offset uint64) (int, error) {
	e, ok := b.fileEntry(f)
	if !ok {
		return 0, vfs.NewError("preadv", vfs.Unexpected)
	}
	n, err := e.handle.Preadv(buffers, int64(offset))
	if err != nil {
		return n, b.translateErr("preadv", err)
	}
	return n, nil
}

func (b *Backend) Writev(f vfs.File, buffers [][]byte) (int, error) {
	e, ok := b.fileEntry(f)
	if !ok {
		return 0, vfs.NewError("writev", vfs.Unexpected)
	}
	n, err := e.handle.Pwritev(buffers, int64(e.cursor))
	e.cursor += uint64(n)
	if err != nil {
		return n, b.translateErr("writev", err)
	}
	return n, nil
}

func (b *Backend) Pwritev(f vfs.File, buffers [][]byte, offset uint64) (int, error) {
	e, ok := b.fileEntry(f)
	if !ok {
		return 0, vfs.NewError("pwritev", vfs.Unexpected)
	}
	n, err := e.handle.Pwritev(buffers, int64(offset))
	if err != nil {
		return n, b.translateErr("pwritev", err)
	}
	return n, nil
}

func (b *Backend) Deinit() error {
	for id, e := range b.dirs {
		e.handle.Close()
		delete(b.dirs, id)
	}
	for id, e := range b.files {
		e.handle.Close()
		delete(b.files, id)
	}
	if b.closeRootOnDeinit {
		return b.root.Close()
	}
	return nil
}

func statFromInfo(info hostfs.Info) vfs.Stat {
	kind := vfs.KindFile
	if info.IsDir {
		kind = vfs.KindDir
	}
	return vfs.Stat{
		Kind:             kind,
		Size:             info.Size,
		ModificationTime: info.ModificationTime,
		ChangeTime:       info.ChangeTime,
	}
}

func (b *Backend) translateErr(op string, err error) error {
	wrapped := translateErr(op, err)
	b.logger.Debugf("%s: %v", op, err)
	return wrapped
}

func translateErr(op string, err error) error {
	switch {
	case hostfs.IsNotExist(err):
		return vfs.NewError(op, vfs.FileNotFound)
	case hostfs.IsNotDir(err):
		return vfs.NewError(op, vfs.NotDir)
	case hostfs.IsDirErr(err):
		return vfs.NewError(op, vfs.IsDir)
	case hostfs.IsExist(err):
		return vfs.NewError(op, vfs.PathAlreadyExists)
	case hostfs.IsNotEmpty(err):
		return vfs.NewError(op, vfs.DirNotEmpty)
	case hostfs.IsPermission(err):
		return vfs.NewError(op, vfs.PermissionDenied)
	case hostfs.IsNoSpace(err):
		return vfs.NewError(op, vfs.NoSpaceLeft)
	case hostfs.IsResourceLimit(err):
		return vfs.NewError(op, vfs.ResourceLimitReached)
	default:
		return vfs.WrapError(op, vfs.Unexpected, err)
	}
}
