// Package multiplex implements a Harha VFS backend that shares one handle
// space across a fixed set of tagged child VFS instances by bit-packing
// the mount tag into every Dir and File it hands out.
package multiplex

import (
	"math/bits"

	"github.com/sorvi-platform/harha/pkg/logging"
	"github.com/sorvi-platform/harha/pkg/vfs"
)

// Backend multiplexes N child VFS instances, addressed by a tag in
// 0..N-1, into one handle space. Every method is allocation-free: it
// only shifts and masks to decode a handle, looks up a slice index, and
// re-encodes the result.
type Backend struct {
	mnt       []*vfs.VFS
	indexBits uint
	innerBits uint

	logger *logging.Logger
}

// New constructs a multiplexer with n tag slots, all initially unmounted.
// n must be at least 1.
func New(n int) *Backend {
	if n < 1 {
		n = 1
	}
	indexBits := uint(bits.Len(uint(n)))
	return &Backend{
		mnt:       make([]*vfs.VFS, n),
		indexBits: indexBits,
		innerBits: 32 - indexBits,
	}
}

// WithLogger attaches a logger to the backend, used to record tag
// routing decisions at Trace level. It returns the backend for chaining
// at construction time.
func (b *Backend) WithLogger(logger *logging.Logger) *Backend {
	b.logger = logger
	return b
}

// Mount installs fs at tag, replacing any VFS previously mounted there.
func (b *Backend) Mount(tag int, fs *vfs.VFS) error {
	if tag < 0 || tag >= len(b.mnt) {
		return vfs.NewError("mount", vfs.InvalidPath)
	}
	b.mnt[tag] = fs
	return nil
}

// Unmount clears the VFS mounted at tag, if any.
func (b *Backend) Unmount(tag int) error {
	if tag < 0 || tag >= len(b.mnt) {
		return vfs.NewError("unmount", vfs.InvalidPath)
	}
	b.mnt[tag] = nil
	return nil
}

// RootDir returns the Dir denoting the logical root of the VFS mounted at
// tag: {tag, inner=0}.
func (b *Backend) RootDir(tag int) vfs.Dir {
	return b.encodeDir(uint32(tag), 0)
}

func (b *Backend) encodeDir(tag, inner uint32) vfs.Dir {
	return vfs.Dir(tag<<b.innerBits | inner)
}

func (b *Backend) decodeDir(d vfs.Dir) (tag uint32, inner uint32) {
	mask := uint32(1)<<b.innerBits - 1
	return uint32(d) >> b.innerBits, uint32(d) & mask
}

func (b *Backend) encodeFile(tag, inner uint32) vfs.File {
	return vfs.File(tag<<b.innerBits | inner)
}

func (b *Backend) decodeFile(f vfs.File) (tag uint32, inner uint32) {
	mask := uint32(1)<<b.innerBits - 1
	return uint32(f) >> b.innerBits, uint32(f) & mask
}

func (b *Backend) childForTag(tag uint32) (*vfs.VFS, error) {
	if tag >= uint32(len(b.mnt)) || b.mnt[tag] == nil {
		return nil, vfs.NewError("multiplex", vfs.FileNotFound)
	}
	b.logger.Tracef("routing to tag %d", tag)
	return b.mnt[tag], nil
}

// relDir turns a path string relative to the decoded inner Dir (already
// validated by the facade above this backend) into a relative SafePath, so
// that the child facade resolves it against that inner Dir instead of
// rebinding it to the child's logical root. The empty string (the
// directory itself) maps to the zero SafePath, whose Relative() is "".
func relDir(sub string) (vfs.SafePath, error) {
	if sub == "" {
		return vfs.SafePath{}, nil
	}
	return vfs.Resolve(sub)
}

// Permissions reports full capability: every forwarded call re-runs the
// target child's own capability gate, so the multiplexer imposes no
// restriction of its own.
func (b *Backend) Permissions() vfs.Permissions {
	return vfs.AllPermissions()
}

func (b *Backend) OpenDir(parent vfs.Dir, sub string, options vfs.DirOpenOptions) (vfs.Dir, error) {
	tag, inner := b.decodeDir(parent)
	child, err := b.childForTag(tag)
	if err != nil {
		return 0, err
	}
	rp, err := relDir(sub)
	if err != nil {
		return 0, err
	}
	childDir, err := child.OpenDir(vfs.Dir(inner), rp, options)
	if err != nil {
		return 0, err
	}
	return b.encodeDir(tag, uint32(childDir)), nil
}

func (b *Backend) CloseDir(d vfs.Dir) {
	if d == vfs.RootDir {
		return
	}
	tag, inner := b.decodeDir(d)
	child, err := b.childForTag(tag)
	if err != nil {
		return
	}
	child.CloseDir(vfs.Dir(inner))
}

func (b *Backend) DeleteDir(parent vfs.Dir, sub string, options vfs.DirDeleteOptions) error {
	tag, inner := b.decodeDir(parent)
	child, err := b.childForTag(tag)
	if err != nil {
		return err
	}
	rp, err := relDir(sub)
	if err != nil {
		return err
	}
	return child.DeleteDir(vfs.Dir(inner), rp, options)
}

func (b *Backend) Stat(parent vfs.Dir, sub string) (vfs.Stat, error) {
	tag, inner := b.decodeDir(parent)
	child, err := b.childForTag(tag)
	if err != nil {
		return vfs.Stat{}, err
	}
	rp, err := relDir(sub)
	if err != nil {
		return vfs.Stat{}, err
	}
	return child.Stat(vfs.Dir(inner), rp)
}

// Iterate forwards to the child's Iterate. If the decoded inner handle is
// the 0 sentinel, it is substituted for the child's actual current
// logical root rather than passed through as vfs.RootDir, since Iterate
// alone among VFS operations does not perform root rebinding.
func (b *Backend) Iterate(d vfs.Dir) (vfs.Iterator, error) {
	tag, inner := b.decodeDir(d)
	child, err := b.childForTag(tag)
	if err != nil {
		return nil, err
	}
	target := vfs.Dir(inner)
	if inner == 0 {
		target = child.CurrentRoot()
	}
	return child.Iterate(target)
}

func (b *Backend) OpenFile(parent vfs.Dir, sub string, options vfs.FileOpenOptions) (vfs.File, error) {
	tag, inner := b.decodeDir(parent)
	child, err := b.childForTag(tag)
	if err != nil {
		return 0, err
	}
	rp, err := relDir(sub)
	if err != nil {
		return 0, err
	}
	childFile, err := child.OpenFile(vfs.Dir(inner), rp, options)
	if err != nil {
		return 0, err
	}
	return b.encodeFile(tag, uint32(childFile)), nil
}

func (b *Backend) CloseFile(f vfs.File) {
	tag, inner := b.decodeFile(f)
	child, err := b.childForTag(tag)
	if err != nil {
		return
	}
	child.CloseFile(vfs.File(inner))
}

func (b *Backend) DeleteFile(parent vfs.Dir, sub string) error {
	tag, inner := b.decodeDir(parent)
	child, err := b.childForTag(tag)
	if err != nil {
		return err
	}
	rp, err := relDir(sub)
	if err != nil {
		return err
	}
	return child.DeleteFile(vfs.Dir(inner), rp)
}

func (b *Backend) Seek(f vfs.File, offset uint64, whence vfs.Whence) (uint64, error) {
	tag, inner := b.decodeFile(f)
	child, err := b.childForTag(tag)
	if err != nil {
		return 0, err
	}
	return child.Seek(vfs.File(inner), offset, whence)
}

func (b *Backend) Readv(f vfs.File, buffers [][]byte) (int, error) {
	tag, inner := b.decodeFile(f)
	child, err := b.childForTag(tag)
	if err != nil {
		return 0, err
	}
	return child.Readv(vfs.File(inner), buffers)
}

func (b *Backend) Preadv(f vfs.File, buffers [][]byte, offset uint64) (int, error) {
	tag, inner := b.decodeFile(f)
	child, err := b.childForTag(tag)
	if err != nil {
		return 0, err
	}
	return child.Preadv(vfs.File(inner), buffers, offset)
}

func (b *Backend) Writev(f vfs.File, buffers [][]byte) (int, error) {
	tag, inner := b.decodeFile(f)
	child, err := b.childForTag(tag)
	if err != nil {
		return 0, err
	}
	return child.Writev(vfs.File(inner), buffers)
}

func (b *Backend) Pwritev(f vfs.File, buffers [][]byte, offset uint64) (int, error) {
	tag, inner := b.decodeFile(f)
	child, err := b.childForTag(tag)
	if err != nil {
		return 0, err
	}
	return child.Pwritev(vfs.File(inner), buffers, offset)
}

// Deinit is a no-op: the multiplexer borrows every mounted child VFS, and
// per the ownership rule shared with the overlay backend, the caller
// deinits each child after the multiplexer.
func (b *Backend) Deinit() error {
	return nil
}
