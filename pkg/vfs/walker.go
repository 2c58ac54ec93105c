package vfs

// WalkEntry pairs an Entry with its full path relative to the walk's
// starting directory.
type WalkEntry struct {
	Path  string
	Entry Entry
}

func joinWalkPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// frame is one level of a walker's explicit stack. ownsDir distinguishes
// the starting directory, which the caller opened and keeps ownership of,
// from every directory the walker opened on its own behalf while
// descending: leaving or deiniting releases the former's iterator only,
// and the latter's iterator and handle both.
type frame struct {
	dir     Dir
	iter    Iterator
	path    string
	ownsDir bool
}

func (f *frame) release(v *VFS) {
	f.iter.Deinit()
	if f.ownsDir {
		v.CloseDir(f.dir)
	}
}

// baseWalker holds the explicit stack shared by Walker and SelectiveWalker,
// so that descent, early exit, and teardown are implemented exactly once.
type baseWalker struct {
	vfs   *VFS
	stack []frame
}

// leave pops and releases the current top frame, abandoning any of its
// remaining siblings.
func (w *baseWalker) leave() {
	if len(w.stack) == 0 {
		return
	}
	top := &w.stack[len(w.stack)-1]
	top.release(w.vfs)
	w.stack = w.stack[:len(w.stack)-1]
}

func (w *baseWalker) deinit() {
	for i := range w.stack {
		w.stack[i].release(w.vfs)
	}
	w.stack = nil
}

// enter opens name (relative to parent) for iteration and pushes it as a
// new, walker-owned frame at path.
func (w *baseWalker) enter(parent Dir, name, path string) error {
	sp, err := Resolve(name)
	if err != nil {
		return err
	}
	childDir, err := w.vfs.OpenDir(parent, sp, DirOpenOptions{Iterate: true})
	if err != nil {
		return err
	}
	childIter, err := w.vfs.Iterate(childDir)
	if err != nil {
		w.vfs.CloseDir(childDir)
		return err
	}
	w.stack = append(w.stack, frame{dir: childDir, iter: childIter, path: path, ownsDir: true})
	return nil
}

// next advances the top frame's iterator, popping exhausted or errored
// frames and resuming at the parent, per the walker's "errors don't
// terminate the walk" policy. It returns the yielded entry along with the
// parent Dir and full path a caller needs to decide whether to descend.
func (w *baseWalker) next() (entry *WalkEntry, path string, parent Dir, err error) {
	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		ent, iterErr := top.iter.Next()
		if iterErr != nil {
			w.leave()
			return nil, "", 0, iterErr
		}
		if ent == nil {
			w.leave()
			continue
		}
		p := joinWalkPath(top.path, ent.Basename)
		return &WalkEntry{Path: p, Entry: *ent}, p, top.dir, nil
	}
	return nil, "", 0, nil
}

// Walker performs an unconditional depth-first, pre-order walk: every
// directory encountered is descended into automatically. Leave may still
// be called to abandon the remaining siblings of the directory currently
// being visited.
type Walker struct {
	b baseWalker
}

// NewWalker starts an unconditional walk at root, which the caller has
// already opened with iteration enabled and keeps ownership of; the walker
// never closes root itself.
func NewWalker(v *VFS, root Dir, rootPath string) (*Walker, error) {
	it, err := v.Iterate(root)
	if err != nil {
		return nil, err
	}
	return &Walker{b: baseWalker{vfs: v, stack: []frame{{dir: root, iter: it, path: rootPath}}}}, nil
}

// Next returns the next entry in pre-order, or (nil, nil) once the walk is
// exhausted.
func (w *Walker) Next() (*WalkEntry, error) {
	we, path, parent, err := w.b.next()
	if err != nil || we == nil {
		return we, err
	}
	if we.Entry.Stat.Kind == KindDir {
		if err := w.b.enter(parent, we.Entry.Basename, path); err != nil {
			return nil, err
		}
	}
	return we, nil
}

// Leave abandons the remaining entries of the directory currently being
// visited and resumes at its parent.
func (w *Walker) Leave() {
	w.b.leave()
}

// Deinit releases every frame the walker opened.
func (w *Walker) Deinit() {
	w.b.deinit()
}

// SelectiveWalker performs a depth-first, pre-order walk that never
// descends into a directory automatically: the caller must call Enter
// immediately after Next yields a directory entry it wants to traverse
// into. Entries whose directories are never Entered are skipped entirely.
type SelectiveWalker struct {
	b          baseWalker
	lastParent Dir
	lastName   string
	lastPath   string
	canEnter   bool
}

// NewSelectiveWalker starts a selective walk at root, under the same
// ownership rule as NewWalker: the caller keeps ownership of root.
func NewSelectiveWalker(v *VFS, root Dir, rootPath string) (*SelectiveWalker, error) {
	it, err := v.Iterate(root)
	if err != nil {
		return nil, err
	}
	return &SelectiveWalker{b: baseWalker{vfs: v, stack: []frame{{dir: root, iter: it, path: rootPath}}}}, nil
}

// Next returns the next entry in pre-order. It never descends on its own;
// call Enter to traverse into a directory entry just returned.
func (w *SelectiveWalker) Next() (*WalkEntry, error) {
	we, path, parent, err := w.b.next()
	w.canEnter = false
	if err != nil || we == nil {
		return we, err
	}
	if we.Entry.Stat.Kind == KindDir {
		w.lastParent, w.lastName, w.lastPath = parent, we.Entry.Basename, path
		w.canEnter = true
	}
	return we, nil
}

// Enter descends into the directory entry most recently returned by Next.
// It fails with Unsupported if the last entry wasn't a directory, or if
// Next hasn't yielded a fresh directory entry since the last Enter or
// Leave.
func (w *SelectiveWalker) Enter() error {
	if !w.canEnter {
		return NewError("enter", Unsupported)
	}
	w.canEnter = false
	return w.b.enter(w.lastParent, w.lastName, w.lastPath)
}

// Leave abandons the remaining entries of the directory currently being
// visited and resumes at its parent.
func (w *SelectiveWalker) Leave() {
	w.canEnter = false
	w.b.leave()
}

// Deinit releases every frame the walker opened.
func (w *SelectiveWalker) Deinit() {
	w.b.deinit()
}
