package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	rootcmd "github.com/sorvi-platform/harha/cmd"
	"github.com/sorvi-platform/harha/pkg/vfs"
)

var statCommand = &cobra.Command{
	Use:   "stat <path>",
	Short: "Print metadata for a single entry",
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

		st, err := tree.Stat(vfs.RootDir, path)
		if err != nil {
			return err
		}

		fmt.Printf("path:     %s\n", path.String())
		fmt.Printf("kind:     %s\n", st.Kind)
		if st.Kind == vfs.KindFile {
			fmt.Printf("size:     %s (%d bytes)\n", humanize.Bytes(st.Size), st.Size)
		}
		if !st.ModificationTime.IsZero() {
			fmt.Printf("modified: %s\n", humanize.Time(st.ModificationTime))
		}
		if !st.ChangeTime.IsZero() {
			fmt.Printf("changed:  %s\n", humanize.Time(st.ChangeTime))
		}
		return nil
	}),
}
