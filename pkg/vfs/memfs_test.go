package vfs

// memBackend is a tiny in-memory Backend fixture used only by this
// package's own tests, standing in for a real backend so the facade,
// walker, and iterator logic can be exercised without touching the host
// filesystem.
type memBackend struct {
	Noop
	dirs map[Dir]*memDir
	next Dir
}

type memDir struct {
	entries     []Entry
	childByName map[string]Dir
}

func newMemBackend() *memBackend {
	b := &memBackend{dirs: map[Dir]*memDir{}, next: 1}
	root := &memDir{childByName: map[string]Dir{}}
	b.dirs[RootDir] = root

	b.addFile(root, "file1.txt", 5)
	sub := b.addDir(root, "sub")
	b.addFile(sub, "file2.txt", 7)
	nested := b.addDir(sub, "nested")
	b.addFile(nested, "file3.txt", 3)

	return b
}

func (b *memBackend) addDir(parent *memDir, name string) *memDir {
	id := b.next
	b.next++
	d := &memDir{childByName: map[string]Dir{}}
	parent.entries = append(parent.entries, Entry{Basename: name, Stat: Stat{Kind: KindDir}})
	parent.childByName[name] = id
	b.dirs[id] = d
	return d
}

func (b *memBackend) addFile(parent *memDir, name string, size uint64) {
	parent.entries = append(parent.entries, Entry{Basename: name, Stat: Stat{Kind: KindFile, Size: size}})
}

func (b *memBackend) Permissions() Permissions { return AllPermissions() }

func (b *memBackend) OpenDir(parent Dir, sub string, options DirOpenOptions) (Dir, error) {
	d, ok := b.dirs[parent]
	if !ok {
		return 0, NewError("openDir", FileNotFound)
	}
	id, ok := d.childByName[sub]
	if !ok {
		return 0, NewError("openDir", FileNotFound)
	}
	return id, nil
}

func (b *memBackend) CloseDir(Dir) {}

func (b *memBackend) Stat(parent Dir, sub string) (Stat, error) {
	d, ok := b.dirs[parent]
	if !ok {
		return Stat{}, NewError("stat", FileNotFound)
	}
	for _, e := range d.entries {
		if e.Basename == sub {
			return e.Stat, nil
		}
	}
	return Stat{}, NewError("stat", FileNotFound)
}

func (b *memBackend) Iterate(d Dir) (Iterator, error) {
	dir, ok := b.dirs[d]
	if !ok {
		return nil, NewError("iterate", FileNotFound)
	}
	return &memIterator{entries: dir.entries}, nil
}

func (b *memBackend) Deinit() error { return nil }

type memIterator struct {
	entries []Entry
	pos     int
}

func (it *memIterator) Next() (*Entry, error) {
	if it.pos >= len(it.entries) {
		return nil, nil
	}
	e := it.entries[it.pos]
	it.pos++
	return &e, nil
}

func (it *memIterator) Reset() error {
	it.pos = 0
	return nil
}

func (it *memIterator) Deinit() {}
