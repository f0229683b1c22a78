package timeline

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Config holds synchronizer tuning.
type Config struct {
	// TickInterval is the animation frame interval the tick loop runs at.
	// Sync tolerance is one interval relative to playback position.
	TickInterval time.Duration `env:"SPEECHSYNC_TICK_INTERVAL" yaml:"tick_interval"`

	// Logger receives structured debug/warn output. Defaults to the package
	// default logger.
	Logger *log.Logger `env:"-" yaml:"-"`
}

// DefaultTickInterval approximates one 60fps rendering frame.
const DefaultTickInterval = 16 * time.Millisecond

// DefaultConfig returns the default synchronizer configuration.
func DefaultConfig() Config {
	return Config{
		TickInterval: DefaultTickInterval,
		Logger:       log.Default(),
	}
}

func (c *Config) applyDefaults() {
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
}

// Validate rejects intervals too short to schedule or too long to hold the
// one-frame sync tolerance.
func (c *Config) Validate() error {
	if c.TickInterval < time.Millisecond || c.TickInterval > 100*time.Millisecond {
		return fmt.Errorf("tick interval %v out of range [1ms, 100ms]", c.TickInterval)
	}
	return nil
}

// LoadConfig builds a Config from Viper settings with environment overrides.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("sync.tick_interval") {
		cfg.TickInterval = viper.GetDuration("sync.tick_interval")
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid sync configuration: %w", err)
	}
	return cfg, nil
}
