//go:build linux

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/report"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <logfile>",
		Short: "Summarise the destinations in a monitor log",
		Long: `Summarise the destinations in a monitor log.

Reads the JSON lines written by the library ("-" for stdin) and prints one
row per hostname and address. Lines that are not monitor events, such as
application output sharing the stream, are skipped. Logs written with
--log-format console cannot be read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := os.Stdin
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			rep, err := report.Read(in)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			return rep.Render(cmd.OutOrStdout())
		},
	}
}
