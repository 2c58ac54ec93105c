package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	rootcmd "github.com/sorvi-platform/harha/cmd"
	"github.com/sorvi-platform/harha/pkg/vfs"
)

var longListing bool

var lsCommand = &cobra.Command{
	Use:   "ls [path]",
	Short: "List the entries of a directory",
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

		it, err := tree.Iterate(dir)
		if err != nil {
			return err
		}
		defer it.Deinit()

		var entries []vfs.Entry
		for {
			e, err := it.Next()
			if err != nil {
				return err
			}
			if e == nil {
				break
			}
			entries = append(entries, *e)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Basename < entries[j].Basename })

		if longListing {
			printLong(entries)
		} else {
			printColumns(entries)
		}
		return nil
	}),
}

func init() {
	lsCommand.Flags().BoolVarP(&longListing, "long", "l", false, "use a detailed, one-entry-per-line listing")
}

func printLong(entries []vfs.Entry) {
	for _, e := range entries {
		name := e.Basename
		if e.Stat.Kind == vfs.KindDir {
			name = color.BlueString(name + "/")
		}
		size := "-"
		if e.Stat.Kind == vfs.KindFile {
			size = humanize.Bytes(e.Stat.Size)
		}
		fmt.Printf("%6s  %s  %s\n", size, e.Stat.Kind, name)
	}
}

func printColumns(entries []vfs.Entry) {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}

	names := make([]string, len(entries))
	longest := 0
	for i, e := range entries {
		name := e.Basename
		if e.Stat.Kind == vfs.KindDir {
			name += "/"
		}
		names[i] = name
		if len(name) > longest {
			longest = len(name)
		}
	}

	colWidth := longest + 2
	perRow := width / colWidth
	if perRow < 1 {
		perRow = 1
	}

	var line strings.Builder
	for i, name := range names {
		line.WriteString(name)
		if (i+1)%perRow == 0 || i == len(names)-1 {
			fmt.Println(strings.TrimRight(line.String(), " "))
			line.Reset()
		} else {
			line.WriteString(strings.Repeat(" ", colWidth-len(name)))
		}
	}
}
