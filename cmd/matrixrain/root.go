package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/teranos/matrixrain"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configFile string
	verbose    bool
	logFile    string
	seed       uint64

	cellSize int
	interval time.Duration
	alphabet string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "matrixrain",
		Short: "Falling-character rain for terminals and PNG frames",
		Long: `Renders the "digital rain" effect: columns of glyphs falling down the
screen, fading behind themselves and restarting at random once they pass
the bottom edge.

Examples:
  # Rain in the terminal (bubbletea)
  matrixrain

  # Same, drawing with tcell and a fixed seed
  matrixrain tcell --seed 42

  # Film 60 ticks of an 800x600 viewport into ./film
  matrixrain record --width 800 --height 600 --ticks 60 --every 20 --out film`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setupLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTea(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Path to a YAML config file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&opts.logFile, "log-file", "", "Write logs to this file")
	flags.Uint64Var(&opts.seed, "seed", 0, "Random seed (0 picks one from the clock)")
	flags.IntVar(&opts.cellSize, "cell-size", 0, "Glyph cell size in pixels (overrides config)")
	flags.DurationVar(&opts.interval, "interval", 0, "Repaint interval (overrides config)")
	flags.StringVar(&opts.alphabet, "alphabet", "", "Glyph alphabet (overrides config)")

	cmd.AddCommand(newTeaCmd(opts))
	cmd.AddCommand(newTcellCmd(opts))
	cmd.AddCommand(newRecordCmd(opts))
	cmd.AddCommand(newVerifyCmd(opts))

	return cmd
}

// setupLogging routes logs away from the terminal the rain is drawn on.
func (o *rootOptions) setupLogging() error {
	if o.verbose {
		matrixrain.SetLevel(logrus.DebugLevel)
	}

	if o.logFile == "" {
		return nil
	}
	file, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", o.logFile, err)
	}
	matrixrain.SetOutput(file)
	return nil
}

// loadConfig reads the config file, if any, and applies flag overrides.
func (o *rootOptions) loadConfig() (matrixrain.Config, error) {
	cfg := matrixrain.DefaultConfig()
	if o.configFile != "" {
		loaded, err := matrixrain.LoadConfig(o.configFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if o.cellSize != 0 {
		cfg.CellSize = o.cellSize
	}
	if o.interval != 0 {
		cfg.Interval = o.interval
	}
	if o.alphabet != "" {
		cfg.Alphabet = o.alphabet
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (o *rootOptions) rand() matrixrain.Rand {
	seed := o.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	matrixrain.NewLogger("cli").WithField("seed", seed).Debug("Random source seeded")
	return matrixrain.NewRand(seed)
}

// quietTerminal keeps stderr logs off a screen owned by the renderer.
func (o *rootOptions) quietTerminal() {
	if o.logFile == "" {
		matrixrain.SetOutput(io.Discard)
	}
}
