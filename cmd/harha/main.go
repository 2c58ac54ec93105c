// Command harha is a CLI for building a VFS tree from a mount plan and
// exercising it from a terminal.
package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	rootcmd "github.com/sorvi-platform/harha/cmd"
	"github.com/sorvi-platform/harha/pkg/logging"
	"github.com/sorvi-platform/harha/pkg/profile"
	"github.com/sorvi-platform/harha/pkg/version"
)

var (
	planPath      string
	verbosity     string
	profileName   string
	rootLogger    *logging.Logger
	activeProfile *profile.Profile
)

var rootCommand = &cobra.Command{
	Use:           "harha",
	Short:         "harha exposes a mount-plan VFS tree from the command line",
	Version:       version.Tag,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, ok := logging.NameToLevel(verbosity)
		if !ok {
			return errors.Errorf("invalid verbosity level: %q", verbosity)
		}
		colorize := isatty.IsTerminal(os.Stderr.Fd())
		rootLogger = logging.NewRoot(level, colorize)

		if profileName != "" {
			p, err := profile.New(profileName)
			if err != nil {
				return err
			}
			activeProfile = p
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if activeProfile != nil {
			return activeProfile.Finalize()
		}
		return nil
	},
}

func init() {
	flags := rootCommand.PersistentFlags()
	flags.StringVarP(&planPath, "plan", "p", "harha.yml", "path to the mount plan")
	flags.StringVar(&verbosity, "verbosity", "info", "log verbosity (disabled, error, warn, info, debug, trace)")
	flags.StringVar(&profileName, "profile", "", "base name for CPU/heap profile output, if set")

	rootCommand.AddCommand(lsCommand)
	rootCommand.AddCommand(statCommand)
	rootCommand.AddCommand(catCommand)
	rootCommand.AddCommand(walkCommand)
	rootCommand.AddCommand(findCommand)
	rootCommand.AddCommand(packCommand)
	rootCommand.AddCommand(serveCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		rootcmd.Fatal(err)
	}
}
