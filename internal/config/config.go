package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultMobileIDs are the names the external position feeder addresses.
var DefaultMobileIDs = []string{"h9x1", "h2x1", "h8x1", "h12x2"}

// Config holds the simulation start-up parameters.
type Config struct {
	Rows          int      `toml:"rows"`
	Cols          int      `toml:"cols"`
	GridSize      int      `toml:"grid_size"` // Cell size in pixels
	NumStationary int      `toml:"num_stationary"`
	NumMobile     int      `toml:"num_mobile"`
	MobileIDs     []string `toml:"mobile_ids"`
	Seed          int64    `toml:"seed"` // Only affects radii drawn at setup

	FifoPath   string `toml:"fifo_path"`
	BufferSize int    `toml:"buffer_size"` // Max bytes per poll
	RefreshMs  int    `toml:"refresh_ms"`

	CheckRanges   bool `toml:"check_ranges"`
	RemoveOutside bool `toml:"remove_outside"`
	AssignTargets bool `toml:"assign_targets"`
	Headless      bool `toml:"headless"`
}

// Default returns the configuration the simulator starts with when nothing is overridden.
func Default() Config {
	ids := make([]string, len(DefaultMobileIDs))
	copy(ids, DefaultMobileIDs)
	return Config{
		Rows:          16,
		Cols:          16,
		GridSize:      50,
		NumStationary: 1,
		NumMobile:     4,
		MobileIDs:     ids,
		Seed:          10,
		FifoPath:      "/tmp/test.fifo",
		BufferSize:    100,
		RefreshMs:     15,
	}
}

// Load reads a TOML file on top of the defaults. Keys missing from the file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// RefreshInterval is the delay between two ticks.
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshMs) * time.Millisecond
}

// Validate checks the values the world cannot be built with.
func (c Config) Validate() error {
	switch {
	case c.Rows <= 0 || c.Cols <= 0:
		return fmt.Errorf("%w: grid must have positive rows and cols, got %dx%d", ErrInvalidConfig, c.Rows, c.Cols)
	case c.GridSize <= 0:
		return fmt.Errorf("%w: grid_size must be positive, got %d", ErrInvalidConfig, c.GridSize)
	case c.NumStationary < 0 || c.NumMobile < 0:
		return fmt.Errorf("%w: node counts must not be negative, got %d stationary, %d mobile", ErrInvalidConfig, c.NumStationary, c.NumMobile)
	case c.BufferSize <= 0:
		return fmt.Errorf("%w: buffer_size must be positive, got %d", ErrInvalidConfig, c.BufferSize)
	case c.RefreshMs <= 0:
		return fmt.Errorf("%w: refresh_ms must be positive, got %d", ErrInvalidConfig, c.RefreshMs)
	case c.FifoPath == "":
		return fmt.Errorf("%w: fifo_path is empty", ErrInvalidConfig)
	}
	return nil
}
