package main

import (
	"path/filepath"

	"github.com/sorvi-platform/harha/internal/hostfs"
	"github.com/sorvi-platform/harha/pkg/mountspec"
	"github.com/sorvi-platform/harha/pkg/vfs"
)

// openTree loads the mount plan named by the --plan flag and builds the
// VFS tree it describes, resolving any relative path within the plan
// against the plan file's own directory. The returned closer must be
// called to release the host root handle the plan was built against.
func openTree() (*vfs.VFS, func(), error) {
	plan, err := mountspec.Load(planPath)
	if err != nil {
		return nil, nil, err
	}

	root, err := hostfs.OpenRoot(filepath.Dir(planPath))
	if err != nil {
		return nil, nil, err
	}

	tree, err := plan.Build(root, rootLogger)
	if err != nil {
		root.Close()
		return nil, nil, err
	}

	return tree, func() {
		tree.Deinit()
		root.Close()
	}, nil
}

// resolveArg validates a user-supplied path argument as a SafePath,
// defaulting to the VFS root when empty.
func resolveArg(arg string) (vfs.SafePath, error) {
	if arg == "" {
		return vfs.Resolve("/")
	}
	if arg[0] != '/' {
		arg = "/" + arg
	}
	return vfs.Resolve(arg)
}
