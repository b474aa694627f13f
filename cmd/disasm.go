package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tuboc/chip8vm/internal/disasm"
	"github.com/tuboc/chip8vm/internal/loader"
)

func newDisasmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm path/to/rom",
		Short: "print a listing of a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := loader.Load(args[0])
			if err != nil {
				return err
			}
			return disasm.Disassemble(cmd.OutOrStdout(), image)
		},
	}
}
