package main

import (
	"fmt"
	"os"

	hookcmd "dockhand/cmd/dockhand/hook"
	overlaycmd "dockhand/cmd/dockhand/overlay"
	pushcmd "dockhand/cmd/dockhand/push"
	statuscmd "dockhand/cmd/dockhand/status"
	"dockhand/cmd/dockhand/ui"
	"dockhand/internal/logging"

	"github.com/spf13/cobra"
)

func main() {
	var debug bool

	root := &cobra.Command{
		Use:           "dockhand",
		Short:         "Homelab glue: certificate hand-off to a NAS and Docker layer disk usage",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ui.Configure()
			level := logging.LevelInfo
			if debug {
				level = logging.LevelDebug
			}
			return logging.Configure(level)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(hookcmd.Cmd())
	root.AddCommand(pushcmd.Cmd())
	root.AddCommand(statuscmd.Cmd())
	root.AddCommand(overlaycmd.Cmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
