package vfs

// Noop is embedded by a backend to obtain a default "Unsupported"
// implementation (or a no-op for the close operations) of every Backend
// method. A concrete backend embeds Noop and overrides only the operations
// it actually implements, the way the archive backend overrides every
// method except the write family and deletion, which it inherits as
// Unsupported stubs from Noop, and CloseDir, which it inherits as a no-op.
type Noop struct{}

// Permissions returns the zero Permissions value; a real backend must
// override this.
func (Noop) Permissions() Permissions { return Permissions{} }

func (Noop) OpenDir(Dir, string, DirOpenOptions) (Dir, error) {
	return 0, NewError("openDir", Unsupported)
}

func (Noop) CloseDir(Dir) {}

func (Noop) DeleteDir(Dir, string, DirDeleteOptions) error {
	return NewError("deleteDir", Unsupported)
}

func (Noop) Stat(Dir, string) (Stat, error) {
	return Stat{}, NewError("stat", Unsupported)
}

func (Noop) Iterate(Dir) (Iterator, error) {
	return nil, NewError("iterate", Unsupported)
}

func (Noop) OpenFile(Dir, string, FileOpenOptions) (File, error) {
	return 0, NewError("openFile", Unsupported)
}

func (Noop) CloseFile(File) {}

func (Noop) DeleteFile(Dir, string) error {
	return NewError("deleteFile", Unsupported)
}

func (Noop) Seek(File, uint64, Whence) (uint64, error) {
	return 0, NewError("seek", Unsupported)
}

func (Noop) Readv(File, [][]byte) (int, error) {
	return 0, NewError("readv", Unsupported)
}

func (Noop) Preadv(File, [][]byte, uint64) (int, error) {
	return 0, NewError("preadv", Unsupported)
}

func (Noop) Writev(File, [][]byte) (int, error) {
	return 0, NewError("writev", Unsupported)
}

func (Noop) Pwritev(File, [][]byte, uint64) (int, error) {
	return 0, NewError("pwritev", Unsupported)
}

func (Noop) Deinit() error { return nil }
