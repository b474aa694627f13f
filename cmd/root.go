// Package cmd implements the command line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/spf13/cobra"

	"github.com/tuboc/chip8vm/emulator"
)

// BuildInfo is set by the linker through the main package.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand returns the chip8vm command with all subcommands attached.
func NewRootCommand(ctx context.Context, info BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:           "chip8vm",
		Short:         "CHIP-8 virtual machine",
		Version:       buildinfo.Version(info.Version, info.Commit, info.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetContext(ctx)
	root.AddCommand(newRunCommand(), newDisasmCommand())
	return root
}

// Execute runs the command line in args and returns the process exit code.
func Execute(ctx context.Context, info BuildInfo, args []string, stderr io.Writer) int {
	root := NewRootCommand(ctx, info)
	root.SetArgs(args)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var fault *emulator.Fault
	if !errors.As(err, &fault) {
		// faults have been logged by the scheduler already
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}
