// Package overlay implements a Harha VFS backend that routes operations
// across an ordered table of mounted child VFS instances by longest
// mount-point prefix.
package overlay

import (
	"strings"

	"github.com/sorvi-platform/harha/pkg/logging"
	"github.com/sorvi-platform/harha/pkg/vfs"
)

type dirEntry struct {
	child    *vfs.VFS
	childDir vfs.Dir
	fullPath string
}

type fileEntry struct {
	child     *vfs.VFS
	childFile vfs.File
}

// Backend is an overlay VFS backend. It borrows every mounted child VFS:
// it never calls Deinit on them, only on the handles it opened against
// them, leaving the caller responsible for deiniting each child VFS
// itself after the overlay.
type Backend struct {
	order []string
	mnt   map[string]*vfs.VFS

	dirs     map[vfs.Dir]*dirEntry
	files    map[vfs.File]*fileEntry
	nextDir  vfs.Dir
	nextFile vfs.File

	logger *logging.Logger
}

// New constructs an empty overlay with no mounts.
func New() *Backend {
	return &Backend{
		mnt:      make(map[string]*vfs.VFS),
		dirs:     make(map[vfs.Dir]*dirEntry),
		files:    make(map[vfs.File]*fileEntry),
		nextDir:  1,
		nextFile: 0,
	}
}

// WithLogger attaches a logger to the backend, used to record mount
// routing decisions at Trace level. It returns the backend for chaining
// at construction time.
func (b *Backend) WithLogger(logger *logging.Logger) *Backend {
	b.logger = logger
	return b
}

// Mount attaches fs at path, an absolute mount-point string. Mounting the
// same VFS at two points is forbidden — the overlay couldn't otherwise
// attribute a dangling child handle back to the mount that owns it for
// Unmount's cleanup pass.
func (b *Backend) Mount(fs *vfs.VFS, path string) error {
	const op = "mount"
	if path == "" || path[0] != '/' {
		return vfs.NewError(op, vfs.InvalidPath)
	}
	if _, exists := b.mnt[path]; exists {
		return vfs.NewError(op, vfs.PathAlreadyExists)
	}
	for _, existing := range b.mnt {
		if existing == fs {
			return vfs.NewError(op, vfs.PathAlreadyExists)
		}
	}
	b.mnt[path] = fs
	b.order = append(b.order, path)
	return nil
}

// Unmount detaches the child mounted at path and closes every outstanding
// handle this overlay opened against it — the only path through which
// such handles are closed without the caller explicitly closing them
// first.
func (b *Backend) Unmount(path string) error {
	const op = "unmount"
	if _, ok := b.mnt[path]; !ok {
		return vfs.NewError(op, vfs.FileNotFound)
	}
	fs := b.mnt[path]
	delete(b.mnt, path)
	for i, p := range b.order {
		if p == path {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}

	for id, e := range b.dirs {
		if e.child == fs {
			e.child.CloseDir(e.childDir)
			delete(b.dirs, id)
		}
	}
	for id, e := range b.files {
		if e.child == fs {
			e.child.CloseFile(e.childFile)
			delete(b.files, id)
		}
	}
	return nil
}

// vfsForPath scans mount points in reverse insertion order, returning the
// first (i.e. most recently mounted) one that prefixes fullPath, along
// with the remainder path relative to that mount's root.
func (b *Backend) vfsForPath(fullPath string) (mountPath string, child *vfs.VFS, remainder string, ok bool) {
	for i := len(b.order) - 1; i >= 0; i-- {
		mp := b.order[i]
		if !prefixMatch(mp, fullPath) {
			continue
		}
		rem := strings.TrimPrefix(fullPath, mp)
		rem = strings.TrimPrefix(rem, "/")
		b.logger.Tracef("routing %q to mount %q (remainder %q)", fullPath, mp, rem)
		return mp, b.mnt[mp], rem, true
	}
	return "", nil, "", false
}

func prefixMatch(mountPath, fullPath string) bool {
	if mountPath == fullPath {
		return true
	}
	if mountPath == "/" {
		return true
	}
	return strings.HasPrefix(fullPath, mountPath+"/")
}

func composeFull(base, sub string) string {
	if sub == "" {
		return base
	}
	if base == "/" {
		return "/" + sub
	}
	return base + "/" + sub
}

// remainderPath turns a mount-relative remainder string into an absolute
// SafePath so that dispatching it against vfs.RootDir on the child always
// rebinds to that child's current logical root, regardless of what Dir
// value is passed alongside it.
func remainderPath(remainder string) (vfs.SafePath, error) {
	if remainder == "" {
		return vfs.Resolve("/")
	}
	return vfs.Resolve("/" + remainder)
}

func (b *Backend) resolveParentPath(parent vfs.Dir) (string, error) {
	if parent == vfs.RootDir {
		return "/", nil
	}
	e, ok := b.dirs[parent]
	if !ok {
		return "", vfs.NewError("resolveParent", vfs.Unexpected)
	}
	return e.fullPath, nil
}

// Permissions reports full capability: the overlay imposes no
// restriction of its own, since every forwarded call re-runs the target
// child's own capability gate.
func (b *Backend) Permissions() vfs.Permissions {
	return vfs.AllPermissions()
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

func (b *Backend) OpenDir(parent vfs.Dir, sub string, options vfs.DirOpenOptions) (vfs.Dir, error) {
	base, err := b.resolveParentPath(parent)
	if err != nil {
		return 0, err
	}
	full := composeFull(base, sub)
	_, child, remainder, ok := b.vfsForPath(full)
	if !ok {
		return 0, vfs.NewError("openDir", vfs.FileNotFound)
	}
	rp, err := remainderPath(remainder)
	if err != nil {
		return 0, err
	}
	childDir, err := child.OpenDir(vfs.RootDir, rp, options)
	if err != nil {
		return 0, err
	}

	id := b.allocDir()
	b.dirs[id] = &dirEntry{child: child, childDir: childDir, fullPath: full}
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
	e.child.CloseDir(e.childDir)
	delete(b.dirs, d)
}

func (b *Backend) DeleteDir(parent vfs.Dir, sub string, options vfs.DirDeleteOptions) error {
	base, err := b.resolveParentPath(parent)
	if err != nil {
		return err
	}
	full := composeFull(base, sub)
	_, child, remainder, ok := b.vfsForPath(full)
	if !ok {
		return vfs.NewError("deleteDir", vfs.FileNotFound)
	}
	rp, err := remainderPath(remainder)
	if err != nil {
		return err
	}
	return child.DeleteDir(vfs.RootDir, rp, options)
}

func (b *Backend) Stat(parent vfs.Dir, sub string) (vfs.Stat, error) {
	base, err := b.resolveParentPath(parent)
	if err != nil {
		return vfs.Stat{}, err
	}
	full := composeFull(base, sub)
	_, child, remainder, ok := b.vfsForPath(full)
	if !ok {
		return vfs.Stat{}, vfs.NewError("stat", vfs.FileNotFound)
	}
	rp, err := remainderPath(remainder)
	if err != nil {
		return vfs.Stat{}, err
	}
	return child.Stat(vfs.RootDir, rp)
}

// rootIterator synthesizes the immediate mount points directly under "/"
// as directory entries. Deeper synthetic ancestors (e.g. stating "/a"
// when only "/a/b" is mounted) are a known, intentionally unaddressed
// limitation, per the overlay's design notes.
type rootIterator struct {
	names []string
	pos   int
}

func (it *rootIterator) Next() (*vfs.Entry, error) {
	if it.pos >= len(it.names) {
		return nil, nil
	}
	name := it.names[it.pos]
	it.pos++
	return &vfs.Entry{Basename: name, Stat: vfs.Stat{Kind: vfs.KindDir}}, nil
}

func (it *rootIterator) Reset() error {
	it.pos = 0
	return nil
}

func (it *rootIterator) Deinit() {}

func (b *Backend) Iterate(d vfs.Dir) (vfs.Iterator, error) {
	if d == vfs.RootDir {
		var names []string
		seen := map[string]bool{}
		for _, mp := range b.order {
			rest := strings.TrimPrefix(mp, "/")
			if rest == "" {
				continue
			}
			seg := rest
			if idx := strings.IndexByte(rest, '/'); idx >= 0 {
				seg = rest[:idx]
			}
			if !seen[seg] {
				seen[seg] = true
				names = append(names, seg)
			}
		}
		return &rootIterator{names: names}, nil
	}

	e, ok := b.dirs[d]
	if !ok {
		return nil, vfs.NewError("iterate", vfs.Unexpected)
	}
	return e.child.Iterate(e.childDir)
}

func (b *Backend) OpenFile(parent vfs.Dir, sub string, options vfs.FileOpenOptions) (vfs.File, error) {
	base, err := b.resolveParentPath(parent)
	if err != nil {
		return 0, err
	}
	full := composeFull(base, sub)
	_, child, remainder, ok := b.vfsForPath(full)
	if !ok {
		return 0, vfs.NewError("openFile", vfs.FileNotFound)
	}
	rp, err := remainderPath(remainder)
	if err != nil {
		return 0, err
	}
	childFile, err := child.OpenFile(vfs.RootDir, rp, options)
	if err != nil {
		return 0, err
	}

	id := b.allocFile()
	b.files[id] = &fileEntry{child: child, childFile: childFile}
	return id, nil
}

func (b *Backend) CloseFile(f vfs.File) {
	e, ok := b.files[f]
	if !ok {
		return
	}
	e.child.CloseFile(e.childFile)
	delete(b.files, f)
}

func (b *Backend) DeleteFile(parent vfs.Dir, sub string) error {
	base, err := b.resolveParentPath(parent)
	if err != nil {
		return err
	}
	full := composeFull(base, sub)
	_, child, remainder, ok := b.vfsForPath(full)
	if !ok {
		return vfs.NewError("deleteFile", vfs.FileNotFound)
	}
	rp, err := remainderPath(remainder)
	if err != nil {
		return err
	}
	return child.DeleteFile(vfs.RootDir, rp)
}

func (b *Backend) fileEntry(f vfs.File) (*fileEntry, error) {
	e, ok := b.files[f]
	if !ok {
		return nil, vfs.NewError("resolveFile", vfs.Unexpected)
	}
	return e, nil
}

func (b *Backend) Seek(f vfs.File, offset uint64, whence vfs.Whence) (uint64, error) {
	e, err := b.fileEntry(f)
	if err != nil {
		return 0, err
	}
	return e.child.Seek(e.childFile, offset, whence)
}

func (b *Backend) Readv(f vfs.File, buffers [][]byte) (int, error) {
	e, err := b.fileEntry(f)
	if err != nil {
		return 0, err
	}
	return e.child.Readv(e.childFile, buffers)
}

func (b *Backend) Preadv(f vfs.File, buffers [][]byte, offset uint64) (int, error) {
	e, err := b.fileEntry(f)
	if err != nil {
		return 0, err
	}
	return e.child.Preadv(e.childFile, buffers, offset)
}

func (b *Backend) Writev(f vfs.File, buffers [][]byte) (int, error) {
	e, err := b.fileEntry(f)
	if err != nil {
		return 0, err
	}
	return e.child.Writev(e.childFile, buffers)
}

func (b *Backend) Pwritev(f vfs.File, buffers [][]byte, offset uint64) (int, error) {
	e, err := b.fileEntry(f)
	if err != nil {
		return 0, err
	}
	return e.child.Pwritev(e.childFile, buffers, offset)
}

// Deinit closes every outstanding handle this overlay opened against its
// children but never deinits the children themselves: the overlay
// borrows them, and the caller is responsible for deiniting each child
// VFS after the overlay.
func (b *Backend) Deinit() error {
	for id, e := range b.dirs {
		e.child.CloseDir(e.childDir)
		delete(b.dirs, id)
	}
	for id, e := range b.files {
		e.child.CloseFile(e.childFile)
		delete(b.files, id)
	}
	return nil
}
