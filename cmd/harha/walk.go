package main

import (
	"fmt"

	"github.com/spf13/cobra"

	rootcmd "github.com/sorvi-platform/harha/cmd"
	"github.com/sorvi-platform/harha/pkg/vfs"
)

var walkCommand = &cobra.Command{
	Use:   "walk [path]",
	Short: "Recursively list every entry beneath a directory",
	Args:  cobra.MaximumNArgs(1),
	Run: rootcmd.Mainify(func(cmd *cobra.Command, args []string) error {
		var arg string
		if len(args) == 1 {
			arg = args[0]
		}
		path, err := resolveArg(arg)
		if err != nil {
			return err
		}

		tree, closer, err := openTree()
		if err != nil {
			return err
		}
		defer closer()

		dir, err := tree.OpenDir(vfs.RootDir, path, vfs.DirOpenOptions{Iterate: true})
		if err != nil {
			return err
		}
		defer tree.CloseDir(dir)

		w, err := tree.Walk(dir)
		if err != nil {
			return err
		}
		defer w.Deinit()

		for {
			we, err := w.Next()
			if err != nil {
				return err
			}
			if we == nil {
				break
			}
			suffix := ""
			if we.Entry.Stat.Kind == vfs.KindDir {
				suffix = "/"
			}
			fmt.Println(we.Path + suffix)
		}
		return nil
	}),
}
