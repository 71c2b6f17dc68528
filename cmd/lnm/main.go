//go:build linux

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.buildDate=...".
var (
	version   = "dev"
	commit    = ""
	buildDate = ""
)

var verbose bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lnm",
		Short: "Log the network destinations of a process",
		Long: `lnm runs a command with the network monitor library preloaded.

The library interposes socket, connect, getaddrinfo and close. Every
connection is logged with the hostname it was resolved from, so the log
shows which hosts the process talks to.

Examples:
  lnm run -- python3 handler.py         # Run with the monitor, JSON log on stderr
  lnm run --log-file net.log -- ./app   # Send the log to a file
  lnm report net.log                    # Summarise destinations from a log
  lnm info ./liblnm.so                  # Check the library exports its hooks`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose launcher output")

	rootCmd.AddCommand(newRunCmd(), newReportCmd(), newInfoCmd(), newVersionCmd())
	return rootCmd
}

// exitError carries the child's exit status out of the run command.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "lnm %s\n", version)
			if commit != "" {
				fmt.Fprintf(out, "commit: %s\n", commit)
			}
			if buildDate != "" {
				fmt.Fprintf(out, "built:  %s\n", buildDate)
			}
		},
	}
}
