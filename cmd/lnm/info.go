//go:build linux

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/elfinfo"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <liblnm.so>",
		Short: "Show whether a library can be preloaded as the monitor",
		Args:  cobra.ExactArgs(1),
		RunE:  showInfo,
	}
}

func showInfo(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	info, err := elfinfo.Inspect(absPath)
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Library: %s\n", filepath.Base(absPath))
	fmt.Fprintf(out, "Machine: %v\n", info.Machine)
	fmt.Fprintf(out, "Type:    %v\n", info.Type)
	fmt.Fprintf(out, "Exports: %d\n", len(info.Exports))
	fmt.Fprintf(out, "Needed:  %v\n\n", info.Needed)

	fmt.Fprintln(out, "Hooks:")
	for _, name := range hooks {
		if addr := info.FindExport(name); addr != 0 {
			fmt.Fprintf(out, "  0x%x %s\n", addr, name)
		} else {
			fmt.Fprintf(out, "  missing  %s\n", name)
		}
	}
	return info.CheckPreloadable(hooks...)
}
