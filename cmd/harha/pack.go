package main

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	rootcmd "github.com/sorvi-platform/harha/cmd"
	"github.com/sorvi-platform/harha/internal/archivefmt"
	"github.com/sorvi-platform/harha/pkg/encoding"
	"github.com/sorvi-platform/harha/pkg/vfs"
)

var packCommand = &cobra.Command{
	Use:   "pack <out.harha>",
	Short: "Recursively pack the tree into an archive file and print its fingerprint",
	Args:  cobra.ExactArgs(1),
	Run: rootcmd.Mainify(func(cmd *cobra.Command, args []string) error {
		outPath := args[0]

		tree, closer, err := openTree()
		if err != nil {
			return err
		}
		defer closer()

		root, err := vfs.Resolve("/")
		if err != nil {
			return err
		}
		dir, err := tree.OpenDir(vfs.RootDir, root, vfs.DirOpenOptions{Iterate: true})
		if err != nil {
			return err
		}
		defer tree.CloseDir(dir)

		w, err := tree.Walk(dir)
		if err != nil {
			return err
		}
		defer w.Deinit()

		var entries []archivefmt.Entry
		var contents [][]byte
		for {
			we, err := w.Next()
			if err != nil {
				return err
			}
			if we == nil {
				break
			}
			if we.Entry.Stat.Kind == vfs.KindDir {
				continue
			}
			data, err := readWholeFile(tree, we.Path)
			if err != nil {
				return errors.Wrapf(err, "unable to read %q", we.Path)
			}
			entries = append(entries, archivefmt.Entry{
				Path:     we.Path,
				Size:     uint64(len(data)),
				ModNanos: we.Entry.Stat.ModificationTime.UnixNano(),
			})
			contents = append(contents, data)
		}

		offset := archivefmt.HeaderSize(entries)
		for i := range entries {
			entries[i].DataOffset = uint64(offset)
			offset += int64(len(contents[i]))
		}

		out, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer out.Close()

		if err := archivefmt.Write(out, entries); err != nil {
			return err
		}
		sum := sha256.New()
		for _, data := range contents {
			if _, err := out.Write(data); err != nil {
				return err
			}
			sum.Write(data)
		}

		fmt.Printf("packed %d entries into %s\n", len(entries), filepath.Clean(outPath))
		fmt.Printf("fingerprint: %s\n", encoding.Fingerprint(sum.Sum(nil)))
		return nil
	}),
}

func readWholeFile(tree *vfs.VFS, path string) ([]byte, error) {
	sp, err := vfs.Resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := tree.OpenFile(vfs.RootDir, sp, vfs.FileOpenOptions{Mode: vfs.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer tree.CloseFile(f)

	var data []byte
	buf := make([]byte, 32*1024)
	for {
		n, err := tree.Readv(f, [][]byte{buf})
		if n > 0 {
			data = append(data, buf[:n]...)
		}
		if n == 0 && err == nil {
			return data, nil
		}
		if err != nil {
			if err == io.EOF {
				return data, nil
			}
			return nil, err
		}
	}
}
