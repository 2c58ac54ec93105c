package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	rootcmd "github.com/sorvi-platform/harha/cmd"
	"github.com/sorvi-platform/harha/pkg/vfs"
)

var catCommand = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print a file's contents to standard output",
	Args:  cobra.ExactArgs(1),
	Run: rootcmd.Mainify(func(cmd *cobra.Command, args []string) error {
		path, err := resolveArg(args[0])
		if err != nil {
			return err
		}

		tree, closer, err := openTree()
		if err != nil {
			return err
		}
		defer closer()

		f, err := tree.OpenFile(vfs.RootDir, path, vfs.FileOpenOptions{Mode: vfs.ReadOnly})
		if err != nil {
			return err
		}
		defer tree.CloseFile(f)

		buf := make([]byte, 32*1024)
		for {
			n, err := tree.Readv(f, [][]byte{buf})
			if n > 0 {
				if _, werr := os.Stdout.Write(buf[:n]); werr != nil {
					return werr
				}
			}
			if n == 0 && err == nil {
				return nil
			}
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
		}
	}),
}
