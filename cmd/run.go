package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tuboc/chip8vm/internal/config"
	"github.com/tuboc/chip8vm/internal/loader"
	"github.com/tuboc/chip8vm/internal/machine"
)

func newRunCommand() *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "run [path/to/rom]",
		Short: "run a program, or the built-in demo if none is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.ROM = args[0]
			}
			return runProgram(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.ROM, "rom", "r", "", "program image to run")
	flags.StringVarP(&cfg.Speed, "speed", "s", cfg.Speed, "instruction rate, like 500Hz or 1.76MHz")
	flags.IntVarP(&cfg.Cycles, "cycles", "c", cfg.Cycles, "instructions executed per tick")
	flags.StringVarP(&cfg.Frontend, "frontend", "f", cfg.Frontend, "user interface: window, terminal or headless")
	flags.IntVar(&cfg.Scale, "scale", cfg.Scale, "window pixel size")
	flags.BoolVar(&cfg.Watch, "watch", false, "reload the program when its file changes")
	flags.BoolVar(&cfg.Paused, "paused", false, "start in step mode")
	flags.DurationVar(&cfg.Duration, "duration", 0, "stop a headless run after this time")
	flags.BoolVar(&cfg.Dump, "dump", false, "print the final frame and registers of a headless run")
	flags.BoolVar(&cfg.SkipInvalid, "skip-invalid", false, "skip invalid opcodes instead of halting")
	flags.BoolVar(&cfg.Quirks.ShiftUsesVY, "shift-vy", false, "8XY6 and 8XYE shift VY into VX")
	flags.BoolVar(&cfg.Quirks.LoadStoreIncrementsI, "load-store-inc", false, "FX55 and FX65 advance I")
	flags.BoolVar(&cfg.Quirks.LogicResetsVF, "vf-reset", false, "8XY1, 8XY2 and 8XY3 clear VF")
	flags.BoolVar(&cfg.Debug, "debug", false, "enable debug logging")
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", false, "only log errors")

	return cmd
}

func runProgram(cmd *cobra.Command, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := cfg.Logger()

	image := loader.Demo()
	if cfg.ROM != "" {
		var err error
		if image, err = loader.Load(cfg.ROM); err != nil {
			return err
		}
	}

	m := machine.New(logger, cfg)
	m.Stdout = cmd.OutOrStdout()
	return m.Run(cmd.Context(), image)
}
