package vfs

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// WalkGlob performs a selective walk rooted at dir, yielding only the
// non-directory entries whose full path (relative to dir) matches pattern,
// a doublestar glob such as "**/*.go" or "dir/*.txt". Directories are
// walked into but never yielded, even when their own path matches
// pattern. It prunes descent into a
// directory whose path can no longer be a prefix of anything pattern
// could match, so a glob anchored to one subtree doesn't force a walk of
// the whole tree. The caller keeps ownership of dir, exactly as with
// WalkSelectively.
func (v *VFS) WalkGlob(dir Dir, pattern string) ([]WalkEntry, error) {
	const op = "walkGlob"
	if !v.perms.Iterate {
		return nil, permissionDenied(op)
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, NewError(op, InvalidPath)
	}

	w, err := NewSelectiveWalker(v, dir, "")
	if err != nil {
		return nil, err
	}
	defer w.Deinit()

	var matches []WalkEntry
	for {
		we, err := w.Next()
		if err != nil {
			return matches, err
		}
		if we == nil {
			break
		}
		if we.Entry.Stat.Kind == KindDir {
			if couldMatchBeneath(pattern, we.Path) {
				if err := w.Enter(); err != nil {
					return matches, err
				}
			}
			continue
		}
		if doublestar.MatchUnvalidated(pattern, we.Path) {
			matches = append(matches, *we)
		}
	}
	return matches, nil
}

// couldMatchBeneath reports whether some descendant of dirPath could
// still satisfy pattern, by comparing dirPath's segments against
// pattern's leading segments one at a time. A "**" pattern segment can
// match any number of further segments, so it always lets descent
// continue; any other segment must literally match (as a single-segment
// glob) the corresponding directory segment.
func couldMatchBeneath(pattern, dirPath string) bool {
	patternSegs := strings.Split(pattern, "/")
	dirSegs := strings.Split(dirPath, "/")
	for i, seg := range dirSegs {
		if i >= len(patternSegs) {
			return false
		}
		if patternSegs[i] == "**" {
			return true
		}
		if ok, _ := doublestar.Match(patternSegs[i], seg); !ok {
			return false
		}
	}
	return true
}
