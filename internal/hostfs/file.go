package hostfs

import (
	"os"

	"golang.org/x/sys/unix"
)

// File wraps an open regular-file descriptor, usable with positional and
// cursor-relative scatter/gather I/O.
type File struct {
	fd   int
	file *os.File
}

// AccessMode selects the read/write flags OpenFile passes to the host.
type AccessMode int

const (
	AccessReadOnly AccessMode = iota
	AccessWriteOnly
	AccessReadWrite
)

// OpenFile opens the regular file named name within h.
func (h *Handle) OpenFile(name string, mode AccessMode, create bool) (*File, error) {
	if err := ensureValidComponent(name); err != nil {
		return nil, err
	}

	flags := unix.O_NOFOLLOW | unix.O_CLOEXEC
	switch mode {
	case AccessReadOnly:
		flags |= unix.O_RDONLY
	case AccessWriteOnly:
		flags |= unix.O_WRONLY
	case AccessReadWrite:
		flags |= unix.O_RDWR
	}
	if create {
		flags |= unix.O_CREAT
	}

	fd, err := unix.Openat(h.fd, name, flags, 0600)
	if err != nil {
		return nil, err
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if st.Mode&unix.S_IFMT == unix.S_IFDIR {
		unix.Close(fd)
		return nil, unix.EISDIR
	}

	return &File{fd: fd, file: os.NewFile(uintptr(fd), name)}, nil
}

// Close closes the file descriptor.
func (f *File) Close() error {
	return f.file.Close()
}

// Stat queries metadata for the open file itself.
func (f *File) Stat() (Info, error) {
	var st unix.Stat_t
	if err := unix.Fstat(f.fd, &st); err != nil {
		return Info{}, err
	}
	return infoFromStat(&st), nil
}

// batches splits buffers into groups of at most maxBatchIovecs, invoking
// call once per group and summing the returned byte counts. It stops
// early, returning what's been accumulated so far, the moment a group
// returns fewer bytes than it requested or an error — this is the
// "batch... return early (partial) when any batch returns less than
// requested" rule the passthrough backend's readv/writev need.
func batches(buffers [][]byte, call func(group [][]byte) (int, error)) (int, error) {
	total := 0
	for start := 0; start < len(buffers); start += maxBatchIovecs {
		end := start + maxBatchIovecs
		if end > len(buffers) {
			end = len(buffers)
		}
		group := buffers[start:end]

		requested := 0
		for _, b := range group {
			requested += len(b)
		}

		n, err := call(group)
		total += n
		if err != nil {
			return total, err
		}
		if n < requested {
			return total, nil
		}
	}
	return total, nil
}

// Readv reads from the file's current cursor into buffers, advancing it.
func (f *File) Readv(buffers [][]byte) (int, error) {
	return batches(buffers, func(group [][]byte) (int, error) {
		return unix.Readv(f.fd, group)
	})
}

// Writev writes buffers at the file's current cursor, advancing it.
func (f *File) Writev(buffers [][]byte) (int, error) {
	return batches(buffers, func(group [][]byte) (int, error) {
		return unix.Writev(f.fd, group)
	})
}

// Preadv reads into buffers at offset without disturbing the file's
// cursor. Successive batches advance the positional offset by the number
// of bytes each batch requested, matching the cursor advance a
// corresponding Readv call would have made.
func (f *File) Preadv(buffers [][]byte, offset int64) (int, error) {
	pos := offset
	return batches(buffers, func(group [][]byte) (int, error) {
		n, err := unix.Preadv(f.fd, group, pos)
		for _, b := range group {
			pos += int64(len(b))
		}
		return n, err
	})
}

// Pwritev writes buffers at offset without disturbing the file's cursor.
func (f *File) Pwritev(buffers [][]byte, offset int64) (int, error) {
	pos := offset
	return batches(buffers, func(group [][]byte) (int, error) {
		n, err := unix.Pwritev(f.fd, group, pos)
		for _, b := range group {
			pos += int64(len(b))
		}
		return n, err
	})
}

// Seek repositions the file's cursor to an absolute offset and returns
// the new position.
func (f *File) Seek(offset int64) (int64, error) {
	return unix.Seek(f.fd, offset, 0)
}

// End returns the file's current size, used to compute from-end seeks.
func (f *File) End() (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return int64(info.Size), nil
}
