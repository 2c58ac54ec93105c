// Package archive implements a read-only Harha VFS backend over the
// append-only format parsed by internal/archivefmt: every file is served
// by a positional read into one shared backing file, and directory
// entries are synthesized from path prefixes once, at init.
package archive

import (
	"io"
	"math"
	"strings"
	"time"

	"github.com/sorvi-platform/harha/internal/archivefmt"
	"github.com/sorvi-platform/harha/internal/hostfs"
	"github.com/sorvi-platform/harha/pkg/logging"
	"github.com/sorvi-platform/harha/pkg/vfs"
)

// Handle layout, packed into 32 bits: 1 bit kind (0 = directory, 1 =
// file — chosen so that the all-zero root Dir decodes as {kind=dir,
// path index 0, generation 0}), 20 bits of path-table index, 11 bits of
// generation. The generation counter is shared across both Dir and File
// handles and incremented on every open, so that two successive opens of
// the same path are guaranteed to produce different integer handles
// (P3): callers that cache a stale handle value can detect it by simple
// inequality rather than needing a separate "still valid" call.
const (
	genBits       = 11
	pathIndexBits = 20
	genMask       = uint32(1)<<genBits - 1
	pathIndexMask = uint32(1)<<pathIndexBits - 1
	kindFileBit   = uint32(1) << 31
)

func encodeDir(pathIdx int, gen uint32) vfs.Dir {
	return vfs.Dir((uint32(pathIdx)&pathIndexMask)<<genBits | (gen & genMask))
}

func decodeDir(d vfs.Dir) (pathIdx int, gen uint32) {
	v := uint32(d)
	return int((v >> genBits) & pathIndexMask), v & genMask
}

func encodeFile(pathIdx int, gen uint32) vfs.File {
	return vfs.File(kindFileBit | (uint32(pathIdx)&pathIndexMask)<<genBits | (gen & genMask))
}

// indexEntry is the per-path record the archive path index maps to: a
// synthesized Stat plus, for files, the byte offset of their content
// past the entry table.
type indexEntry struct {
	stat       vfs.Stat
	dataOffset uint64
}

// fileState is the per-handle state a File carries: which path it was
// opened against and its independent read cursor.
type fileState struct {
	pathIndex int
	cursor    uint64
}

// Backend is a read-only archive VFS backend. vfs.Noop supplies
// Unsupported stubs for every write/delete operation, which this backend
// never overrides.
type Backend struct {
	vfs.Noop

	file          *hostfs.File
	closeOnDeinit bool

	// paths is the insertion-ordered path table; paths[0] is always "",
	// the archive root, matching the all-zero root Dir's decoded index.
	paths     []string
	pathIndex map[string]int
	entries   map[string]*indexEntry

	files      map[vfs.File]*fileState
	generation uint32

	logger *logging.Logger
}

// WithLogger attaches a logger to the backend, used to record host/format
// errors at Debug level before they're translated into the vfs error
// taxonomy. It returns the backend for chaining at construction time.
func (b *Backend) WithLogger(logger *logging.Logger) *Backend {
	b.logger = logger
	return b
}

// New builds a backend over an already-open archive file. The caller
// retains ownership of f; Deinit will not close it.
func New(f *hostfs.File) (*Backend, error) {
	return build(f, false)
}

// NewPath opens subpath relative to dir as the archive file. The
// resulting handle is owned by the backend and closed on Deinit.
func NewPath(dir *hostfs.Handle, subpath string) (*Backend, error) {
	parent, leaf, cleanup, err := dir.ResolveParent(subpath)
	if err != nil {
		return nil, vfs.WrapError("init", vfs.Unexpected, err)
	}
	defer cleanup()

	f, err := parent.OpenFile(leaf, hostfs.AccessReadOnly, false)
	if err != nil {
		return nil, translateHostErr("init", err)
	}
	b, err := build(f, true)
	if err != nil {
		f.Close()
		return nil, err
	}
	return b, nil
}

// fileReader adapts a *hostfs.File's positional reads into a sequential
// io.Reader so that archivefmt.Read can consume it header-first without
// the backend needing its own buffered-reader bookkeeping.
type fileReader struct {
	f   *hostfs.File
	pos int64
}

func (r *fileReader) Read(p []byte) (int, error) {
	n, err := r.f.Preadv([][]byte{p}, r.pos)
	r.pos += int64(n)
	if n == 0 && err == nil {
		return 0, io.EOF
	}
	return n, err
}

func build(f *hostfs.File, closeOnDeinit bool) (*Backend, error) {
	arc, err := archivefmt.Read(&fileReader{f: f})
	if err != nil {
		return nil, vfs.WrapError("init", vfs.Unexpected, err)
	}

	b := &Backend{
		file:          f,
		closeOnDeinit: closeOnDeinit,
		paths:         []string{""},
		pathIndex:     map[string]int{"": 0},
		entries:       map[string]*indexEntry{"": {stat: vfs.Stat{Kind: vfs.KindDir}}},
		files:         make(map[vfs.File]*fileState),
	}
	for _, e := range arc.Entries {
		if _, exists := b.entries[e.Path]; exists {
			continue
		}
		mtime := time.Unix(0, e.ModNanos)
		b.entries[e.Path] = &indexEntry{
			stat: vfs.Stat{
				Kind:             vfs.KindFile,
				Size:             e.Size,
				ModificationTime: mtime,
				ChangeTime:       mtime,
			},
			dataOffset: e.DataOffset,
		}
		b.addPath(e.Path)
		b.synthesizeAncestors(e.Path)
	}
	return b, nil
}

func (b *Backend) addPath(p string) {
	if _, exists := b.pathIndex[p]; exists {
		return
	}
	b.pathIndex[p] = len(b.paths)
	b.paths = append(b.paths, p)
}

// synthesizeAncestors registers a directory entry for every proper
// prefix of path that isn't already indexed, walking from the deepest
// ancestor up. It stops as soon as it hits a prefix that's already
// present, since every shallower ancestor must then be present too.
func (b *Backend) synthesizeAncestors(path string) {
	idx := strings.LastIndexByte(path, '/')
	for idx >= 0 {
		prefix := path[:idx]
		if _, exists := b.entries[prefix]; exists {
			return
		}
		b.entries[prefix] = &indexEntry{stat: vfs.Stat{Kind: vfs.KindDir}}
		b.addPath(prefix)
		idx = strings.LastIndexByte(prefix, '/')
	}
}

func composePath(base, sub string) string {
	if sub == "" {
		return base
	}
	if base == "" {
		return sub
	}
	return base + "/" + sub
}

func (b *Backend) nextGeneration() uint32 {
	g := b.generation
	b.generation = (b.generation + 1) & genMask
	return g
}

func (b *Backend) dirPath(d vfs.Dir) (string, error) {
	if d == vfs.RootDir {
		return "", nil
	}
	idx, _ := decodeDir(d)
	if idx < 0 || idx >= len(b.paths) {
		return "", vfs.NewError("resolveDir", vfs.Unexpected)
	}
	return b.paths[idx], nil
}

// Permissions reports the read/stat/iterate-only capability every
// archive backend grants; Noop supplies Unsupported for everything else.
func (b *Backend) Permissions() vfs.Permissions {
	return vfs.ReadOnlyPermissions()
}

func (b *Backend) OpenDir(parent vfs.Dir, sub string, options vfs.DirOpenOptions) (vfs.Dir, error) {
	const op = "openDir"
	if options.Create {
		return 0, vfs.NewError(op, vfs.PermissionDenied)
	}
	base, err := b.dirPath(parent)
	if err != nil {
		return 0, err
	}
	full := composePath(base, sub)
	e, ok := b.entries[full]
	if !ok {
		return 0, vfs.NewError(op, vfs.FileNotFound)
	}
	if e.stat.Kind != vfs.KindDir {
		return 0, vfs.NewError(op, vfs.NotDir)
	}
	idx := b.pathIndex[full]
	return encodeDir(idx, b.nextGeneration()), nil
}

// CloseDir is inherited from vfs.Noop as a no-op: a Dir handle carries no
// backend-side state beyond its own encoded path index, so there is
// nothing to release.

func (b *Backend) Stat(parent vfs.Dir, sub string) (vfs.Stat, error) {
	const op = "stat"
	base, err := b.dirPath(parent)
	if err != nil {
		return vfs.Stat{}, err
	}
	full := composePath(base, sub)
	e, ok := b.entries[full]
	if !ok {
		return vfs.Stat{}, vfs.NewError(op, vfs.FileNotFound)
	}
	return e.stat, nil
}

// cursor is a snapshot iterator over one directory's children, built
// once at Iterate time by scanning the full path table; the archive has
// no live host state to reflect, so a snapshot is both correct and
// simplest.
type cursor struct {
	entries []vfs.Entry
	pos     int
}

func (c *cursor) Next() (*vfs.Entry, error) {
	if c.pos >= len(c.entries) {
		return nil, nil
	}
	e := c.entries[c.pos]
	c.pos++
	return &e, nil
}

func (c *cursor) Reset() error {
	c.pos = 0
	return nil
}

func (c *cursor) Deinit() {}

// Iterate scans the full path table for every path that is a direct
// child of parent: strictly longer than parent, prefixed by it (plus a
// separator when parent is non-root), with no further separator in the
// remaining tail.
func (b *Backend) Iterate(d vfs.Dir) (vfs.Iterator, error) {
	parent, err := b.dirPath(d)
	if err != nil {
		return nil, err
	}

	var out []vfs.Entry
	for _, p := range b.paths {
		if p == parent {
			continue
		}
		var tail string
		if parent == "" {
			tail = p
		} else if strings.HasPrefix(p, parent+"/") {
			tail = p[len(parent)+1:]
		} else {
			continue
		}
		if tail == "" || strings.Contains(tail, "/") {
			continue
		}
		out = append(out, vfs.Entry{Basename: tail, Stat: b.entries[p].stat})
	}
	return &cursor{entries: out}, nil
}

func (b *Backend) OpenFile(parent vfs.Dir, sub string, options vfs.FileOpenOptions) (vfs.File, error) {
	const op = "openFile"
	if options.Create || options.Mode != vfs.ReadOnly {
		return 0, vfs.NewError(op, vfs.PermissionDenied)
	}
	base, err := b.dirPath(parent)
	if err != nil {
		return 0, err
	}
	full := composePath(base, sub)
	e, ok := b.entries[full]
	if !ok {
		return 0, vfs.NewError(op, vfs.FileNotFound)
	}
	if e.stat.Kind == vfs.KindDir {
		return 0, vfs.NewError(op, vfs.IsDir)
	}
	idx := b.pathIndex[full]
	h := encodeFile(idx, b.nextGeneration())
	b.files[h] = &fileState{pathIndex: idx}
	return h, nil
}

func (b *Backend) CloseFile(f vfs.File) {
	delete(b.files, f)
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
	st, ok := b.files[f]
	if !ok {
		return 0, vfs.NewError("seek", vfs.Unexpected)
	}
	size := b.entries[b.paths[st.pathIndex]].stat.Size
	switch whence {
	case vfs.SeekSet:
		st.cursor = offset
	case vfs.SeekForward:
		st.cursor = saturatingAdd(st.cursor, offset)
	case vfs.SeekBackward:
		st.cursor = saturatingSub(st.cursor, offset)
	case vfs.SeekFromEnd:
		st.cursor = saturatingSub(size, offset)
	}
	return st.cursor, nil
}

// clampBuffers trims buffers so their combined length does not exceed
// limit, dropping or truncating trailing buffers as needed.
func clampBuffers(buffers [][]byte, limit uint64) [][]byte {
	if limit == 0 {
		return nil
	}
	var out [][]byte
	var used uint64
	for _, buf := range buffers {
		remain := limit - used
		if remain == 0 {
			break
		}
		if uint64(len(buf)) > remain {
			out = append(out, buf[:remain])
			break
		}
		out = append(out, buf)
		used += uint64(len(buf))
	}
	return out
}

// readAt clamps buffers to the entry's remaining bytes past cursor and
// issues one positional read against the shared backing file at the
// entry's data offset plus cursor.
func (b *Backend) readAt(pathIdx int, buffers [][]byte, cursor uint64) (int, error) {
	e := b.entries[b.paths[pathIdx]]
	if cursor >= e.stat.Size {
		return 0, nil
	}
	clamped := clampBuffers(buffers, e.stat.Size-cursor)
	n, err := b.file.Preadv(clamped, int64(e.dataOffset+cursor))
	if err != nil {
		b.logger.Debugf("readv: %v", err)
		return n, vfs.WrapError("readv", vfs.Unexpected, err)
	}
	return n, nil
}

func (b *Backend) Readv(f vfs.File, buffers [][]byte) (int, error) {
	st, ok := b.files[f]
	if !ok {
		return 0, vfs.NewError("readv", vfs.Unexpected)
	}
	n, err := b.readAt(st.pathIndex, buffers, st.cursor)
	st.cursor += uint64(n)
	return n, err
}

func (b *Backend) Preadv(f vfs.File, buffers [][]byte, offset uint64) (int, error) {
	st, ok := b.files[f]
	if !ok {
		return 0, vfs.NewError("preadv", vfs.Unexpected)
	}
	return b.readAt(st.pathIndex, buffers, offset)
}

func (b *Backend) Deinit() error {
	b.files = make(map[vfs.File]*fileState)
	if b.closeOnDeinit {
		return b.file.Close()
	}
	return nil
}

func translateHostErr(op string, err error) error {
	switch {
	case hostfs.IsNotExist(err):
		return vfs.NewError(op, vfs.FileNotFound)
	case hostfs.IsNotDir(err):
		return vfs.NewError(op, vfs.NotDir)
	case hostfs.IsDirErr(err):
		return vfs.NewError(op, vfs.IsDir)
	case hostfs.IsPermission(err):
		return vfs.NewError(op, vfs.PermissionDenied)
	default:
		return vfs.WrapError(op, vfs.Unexpected, err)
	}
}
