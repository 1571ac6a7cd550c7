package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/matrixrain"
)

type recordOptions struct {
	width  int
	height int
	ticks  int
	every  int
	thumb  int
	out    string
}

func newRecordCmd(root *rootOptions) *cobra.Command {
	opts := &recordOptions{}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Film the rain into PNG frames",
		Long: `Steps the rain tick by tick on an off-screen canvas and writes a PNG frame
every --every ticks. With a fixed --seed the frames are reproducible and can
be checked with "matrixrain verify".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if opts.width <= 0 || opts.height <= 0 {
				return fmt.Errorf("viewport must be positive, got %dx%d", opts.width, opts.height)
			}
			if opts.ticks <= 0 {
				return fmt.Errorf("ticks must be positive, got %d", opts.ticks)
			}
			if opts.every <= 0 {
				opts.every = opts.ticks
			}

			rec := matrixrain.NewRecorder(cfg, opts.width, opts.height, opts.out).
				WithRand(root.rand()).
				WithThumbnails(opts.thumb).
				Start()

			for done := 0; done < opts.ticks; {
				step := min(opts.every, opts.ticks-done)
				rec.Advance(step)
				done += step
				rec.CaptureFrame(fmt.Sprintf("tick%04d", done))
			}

			result := rec.Stop()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Recorded %d frames over %d ticks (%d columns) in %s\n",
				len(result.Frames), result.Ticks, result.Columns, result.Duration)
			if !result.Success {
				fmt.Fprint(out, result.TripReport)
				return errors.New("recording finished with capture errors")
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.width, "width", 800, "Viewport width in pixels")
	flags.IntVar(&opts.height, "height", 600, "Viewport height in pixels")
	flags.IntVar(&opts.ticks, "ticks", 60, "Number of repaints to perform")
	flags.IntVar(&opts.every, "every", 0, "Capture a frame every N ticks (default: only the last)")
	flags.IntVar(&opts.thumb, "thumb", 0, "Also write thumbnails fitting in NxN pixels (0 disables)")
	flags.StringVarP(&opts.out, "out", "o", "film", "Directory for frames")

	return cmd
}
