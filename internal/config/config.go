// Package config holds the YAML session configuration, named presets,
// and a file watcher for live reloads.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spinlab-sim/spinlab/internal/lattice"
)

const (
	DefaultWidth       = 64
	DefaultHeight      = 64
	DefaultTemperature = 2.269 // 2D Ising critical point
	DefaultFPS         = 30
	DefaultWindow      = 60
	DefaultBrushRadius = 2
	DefaultDataDir     = ".spinlab"
)

type Config struct {
	Model       string  `yaml:"model"`
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Temperature float64 `yaml:"temperature"`
	Seed        int64   `yaml:"seed"`
	Weighted    bool    `yaml:"weighted"`
	DefectFrac  float64 `yaml:"defect_frac"`
	Lambda      float64 `yaml:"lambda"`

	FPS     int     `yaml:"fps"`
	MaxRate float64 `yaml:"max_rate"` // trials/second, 0 = unthrottled
	Window  int     `yaml:"window"`
	DataDir string  `yaml:"data_dir"`

	BrushRadius int `yaml:"brush_radius"`

	Sweep SweepDefaults `yaml:"sweep"`
}

// SweepDefaults seeds the sweep command and the TUI sweep key.
type SweepDefaults struct {
	Start       float64       `yaml:"start"`
	End         float64       `yaml:"end"`
	Step        float64       `yaml:"step"`
	Equilibrate time.Duration `yaml:"equilibrate"`
	Dwell       time.Duration `yaml:"dwell"`
	Samples     int           `yaml:"samples"`
	Gap         time.Duration `yaml:"gap"`
	Snapshots   bool          `yaml:"snapshots"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:       lattice.ModelIsing,
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Temperature: DefaultTemperature,
		FPS:         DefaultFPS,
		Window:      DefaultWindow,
		DataDir:     DefaultDataDir,
		BrushRadius: DefaultBrushRadius,
		Sweep: SweepDefaults{
			Start:       1.0,
			End:         3.5,
			Step:        0.25,
			Equilibrate: 2 * time.Second,
			Dwell:       time.Second,
			Samples:     10,
			Gap:         100 * time.Millisecond,
		},
	}
}

// Load reads path over the defaults, so a partial file only overrides
// the fields it names. The result is validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	known := false
	for _, m := range lattice.Models() {
		if c.Model == m {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown model %q (available: %v)", c.Model, lattice.Models())
	}
	if c.Width < 2 || c.Height < 2 {
		return fmt.Errorf("lattice size must be at least 2x2, got %dx%d", c.Width, c.Height)
	}
	if c.DefectFrac < 0 || c.DefectFrac >= 1 {
		return fmt.Errorf("defect_frac must be in [0,1), got %f", c.DefectFrac)
	}
	if c.Lambda < 0 {
		return fmt.Errorf("lambda must be non-negative, got %f", c.Lambda)
	}
	if c.FPS < 1 || c.FPS > 120 {
		return fmt.Errorf("fps must be in [1,120], got %d", c.FPS)
	}
	if c.MaxRate < 0 {
		return fmt.Errorf("max_rate must be non-negative, got %f", c.MaxRate)
	}
	if c.Window < 1 {
		return fmt.Errorf("window must be positive, got %d", c.Window)
	}
	if c.BrushRadius < 0 {
		return fmt.Errorf("brush_radius must be non-negative, got %d", c.BrushRadius)
	}
	return nil
}

// LatticeSpec maps the config onto a lattice build spec.
func (c *Config) LatticeSpec() lattice.Spec {
	return lattice.Spec{
		Model:      c.Model,
		Width:      c.Width,
		Height:     c.Height,
		Seed:       c.Seed,
		Weighted:   c.Weighted,
		Lambda:     c.Lambda,
		DefectFrac: c.DefectFrac,
	}
}
