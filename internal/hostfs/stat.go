package hostfs

import (
	"time"

	"golang.org/x/sys/unix"
)

// Info is a host-neutral stat result; the passthrough backend converts it
// to vfs.Stat.
type Info struct {
	IsDir            bool
	Size             uint64
	ModificationTime time.Time
	ChangeTime       time.Time
}

func infoFromStat(st *unix.Stat_t) Info {
	mtime := time.Unix(st.Mtim.Unix())
	ctime := time.Unix(st.Ctim.Unix())
	return Info{
		IsDir:            st.Mode&unix.S_IFMT == unix.S_IFDIR,
		Size:             uint64(st.Size),
		ModificationTime: mtime,
		ChangeTime:       ctime,
	}
}

// Stat queries metadata for name within h without following symbolic
// links.
func (h *Handle) Stat(name string) (Info, error) {
	if name == "" {
		return h.StatSelf()
	}
	if err := ensureValidComponent(name); err != nil {
		return Info{}, err
	}
	var st unix.Stat_t
	if err := unix.Fstatat(h.fd, name, &st, unix.AT_SYMLINK_NOFOLLOW); err != nil {
		return Info{}, err
	}
	return infoFromStat(&st), nil
}

// StatSelf queries metadata for h's own directory.
func (h *Handle) StatSelf() (Info, error) {
	var st unix.Stat_t
	if err := unix.Fstat(h.fd, &st); err != nil {
		return Info{}, err
	}
	return infoFromStat(&st), nil
}
