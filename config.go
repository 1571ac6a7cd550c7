package matrixrain

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/teranos/matrixrain/trip"
)

// Config defines the look and cadence of the rain.
//
// Example usage:
//
//	cfg := matrixrain.DefaultConfig()
//	cfg.Alphabet = "ｱｲｳｴｵ01"
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
type Config struct {
	// Mount is the identifier of the drawing surface to look up
	Mount string `yaml:"mount"`
	// CellSize is the glyph cell size in pixels (column width and row height)
	CellSize int `yaml:"cell_size"`
	// Interval between repaints
	Interval time.Duration `yaml:"interval"`
	// FadeAlpha is the opacity of the dark overlay painted every tick
	FadeAlpha float64 `yaml:"fade_alpha"`
	// ResetChance is the per-tick probability that a column past the bottom restarts
	ResetChance float64 `yaml:"reset_chance"`
	// Alphabet is the glyph set sampled on every draw
	Alphabet string `yaml:"alphabet"`
	// Accent is the glyph colour as a hex string
	Accent string `yaml:"accent"`
}

// DefaultConfig returns the classic green binary rain:
//   - "matrix" mount point
//   - 14px cells repainted every 45ms
//   - 6% fade per tick, 2.5% restart chance past the bottom edge
//   - "01" alphabet in #00ff9d
func DefaultConfig() Config {
	return Config{
		Mount:       "matrix",
		CellSize:    14,
		Interval:    45 * time.Millisecond,
		FadeAlpha:   0.06,
		ResetChance: 0.025,
		Alphabet:    "01",
		Accent:      "#00ff9d",
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Keys absent from the file
// keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, trip.Wrap(trip.KindConfig, "failed to read config", err, trip.Context{"path": path})
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, trip.Wrap(trip.KindConfig, "failed to parse config", err, trip.Context{"path": path})
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid field as a config trip.
func (c Config) Validate() error {
	switch {
	case c.Mount == "":
		return trip.NewTrip(trip.KindConfig, "mount id must not be empty", nil)
	case c.CellSize <= 0:
		return trip.NewTrip(trip.KindConfig, "cell size must be positive",
			trip.Context{"cell_size": c.CellSize})
	case c.Interval <= 0:
		return trip.NewTrip(trip.KindConfig, "interval must be positive",
			trip.Context{"interval": c.Interval})
	case c.FadeAlpha <= 0 || c.FadeAlpha > 1:
		return trip.NewTrip(trip.KindConfig, "fade alpha must be in (0, 1]",
			trip.Context{"fade_alpha": c.FadeAlpha})
	case c.ResetChance < 0 || c.ResetChance > 1:
		return trip.NewTrip(trip.KindConfig, "reset chance must be in [0, 1]",
			trip.Context{"reset_chance": c.ResetChance})
	case len([]rune(c.Alphabet)) == 0:
		return trip.NewTrip(trip.KindConfig, "alphabet must not be empty", nil)
	}

	if _, err := colorful.Hex(c.Accent); err != nil {
		return trip.Wrap(trip.KindConfig, "accent is not a hex colour", err,
			trip.Context{"accent": c.Accent})
	}
	return nil
}

// AccentColor returns the parsed accent colour. Invalid values fall back to
// the default accent so a bad Config never stops the rain.
func (c Config) AccentColor() color.RGBA {
	parsed, err := colorful.Hex(c.Accent)
	if err != nil {
		parsed, _ = colorful.Hex(DefaultConfig().Accent)
	}
	r, g, b := parsed.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// FadeColor returns the translucent black painted over the surface each tick.
func (c Config) FadeColor() color.NRGBA {
	alpha := c.FadeAlpha
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return color.NRGBA{A: uint8(alpha*255 + 0.5)}
}

// IsConfigError reports whether err is, or wraps, a config trip.
func IsConfigError(err error) bool {
	var t *trip.Trip
	return errors.As(err, &t) && t.Kind == trip.KindConfig
}
