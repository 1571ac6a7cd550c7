package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teranos/matrixrain"
)

type verifyOptions struct {
	baseline  string
	current   string
	tolerance float64
	update    bool
}

func newVerifyCmd(root *rootOptions) *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify FRAME...",
		Short: "Compare recorded frames against a baseline",
		Long: `Compares <current>/<FRAME>.png with <baseline>/<FRAME>.png for each FRAME.
A frame whose differing pixels exceed --tolerance fails and gets a
<FRAME>_diff.png next to it. --update copies the current frames over the
baseline instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			supervisor := matrixrain.NewFrameSupervisor(opts.baseline, opts.current).
				WithTolerance(opts.tolerance)
			out := cmd.OutOrStdout()

			var errs []error
			for _, name := range args {
				if opts.update {
					if err := supervisor.SetBaseline(name, filepath.Join(opts.current, name+".png")); err != nil {
						errs = append(errs, fmt.Errorf("%s: %w", name, err))
						continue
					}
					fmt.Fprintf(out, "baseline updated: %s\n", name)
					continue
				}

				if err := supervisor.Compare(name); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", name, err))
					fmt.Fprintf(out, "FAIL %s: %v\n", name, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s\n", name)
			}
			return errors.Join(errs...)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.baseline, "baseline", "film/baseline", "Baseline frame directory")
	flags.StringVar(&opts.current, "current", "film", "Current frame directory")
	flags.Float64Var(&opts.tolerance, "tolerance", 0.05, "Fraction of pixels allowed to differ")
	flags.BoolVar(&opts.update, "update", false, "Replace the baseline with the current frames")

	return cmd
}
