package config

import (
	"sort"
	"time"
)

// preset builds a named variation over the defaults.
func preset(mut func(*Config)) *Config {
	cfg := DefaultConfig()
	mut(cfg)
	return cfg
}

var Presets = map[string]map[string]*Config{
	"ising": {
		"critical": preset(func(c *Config) {
			c.Temperature = 2.269
		}),
		"hot": preset(func(c *Config) {
			c.Temperature = 5.0
		}),
		"quench": preset(func(c *Config) {
			// Start disordered and drop straight to the frozen phase.
			c.Temperature = 0.5
			c.Seed = 1
		}),
		"diluted": preset(func(c *Config) {
			c.Temperature = 2.0
			c.DefectFrac = 0.1
		}),
		"glassy": preset(func(c *Config) {
			c.Temperature = 1.2
			c.Weighted = true
		}),
		"scan": preset(func(c *Config) {
			c.Temperature = 1.0
			c.Sweep = SweepDefaults{
				Start: 1.0, End: 3.5, Step: 0.1,
				Equilibrate: 5 * time.Second,
				Dwell:       2 * time.Second,
				Samples:     20,
				Gap:         50 * time.Millisecond,
			}
		}),
	},
	"softspin": {
		"linear": preset(func(c *Config) {
			c.Model = "softspin"
			c.Temperature = 1.5
		}),
		"doublewell": preset(func(c *Config) {
			c.Model = "softspin"
			c.Temperature = 1.0
			c.Lambda = 2.0
		}),
		"pinned": preset(func(c *Config) {
			c.Model = "softspin"
			c.Temperature = 0.3
			c.Lambda = 4.0
		}),
	},
}

func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	// Copy so callers can layer flag overrides without mutating the table.
	c := *cfg
	return &c
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
