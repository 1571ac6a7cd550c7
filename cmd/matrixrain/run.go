package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teranos/matrixrain/operators"
)

func newTeaCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tea",
		Short: "Rain in the terminal using bubbletea (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTea(cmd, opts)
		},
	}
}

func newTcellCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tcell",
		Short: "Rain in the terminal using tcell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			opts.quietTerminal()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			screen, err := operators.NewTerminalScreen()
			if err != nil {
				return err
			}
			defer screen.Fini()

			return operators.NewTcellOperator(screen, cfg).
				WithRand(opts.rand()).
				Start().
				Run(ctx)
		},
	}
}

func runTea(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	opts.quietTerminal()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	return operators.NewTeaOperator(cfg).
		WithRand(opts.rand()).
		Start().
		Run(ctx)
}
