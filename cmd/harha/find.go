package main

import (
	"fmt"

	"github.com/spf13/cobra"

	rootcmd "github.com/sorvi-platform/harha/cmd"
	"github.com/sorvi-platform/harha/pkg/vfs"
)

var findCommand = &cobra.Command{
	Use:   "find <pattern>",
	Short: "List files matching a doublestar glob pattern, e.g. '**/*.go'",
	Args:  cobra.ExactArgs(1),
	Run: rootcmd.Mainify(func(cmd *cobra.Command, args []string) error {
		pattern := args[0]

		tree, closer, err := openTree()
		if err != nil {
			return err
		}
		defer closer()

		matches, err := tree.WalkGlob(vfs.RootDir, pattern)
		if err != nil {
			return err
		}
		for _, m := range matches {
			fmt.Println(m.Path)
		}
		return nil
	}),
}
