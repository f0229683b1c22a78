package timeline

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.TickInterval != DefaultTickInterval {
		t.Errorf("TickInterval = %v, want %v", cfg.TickInterval, DefaultTickInterval)
	}
	if cfg.Logger == nil {
		t.Error("Logger should default to non-nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		wantErr  bool
	}{
		{"default", DefaultTickInterval, false},
		{"lower bound", time.Millisecond, false},
		{"upper bound", 100 * time.Millisecond, false},
		{"too short", 500 * time.Microsecond, true},
		{"too long", 200 * time.Millisecond, true},
		{"zero", 0, true},
		{"negative", -time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{TickInterval: tt.interval}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%v) err = %v, wantErr %v", tt.interval, err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()
	if cfg.TickInterval != DefaultTickInterval {
		t.Errorf("TickInterval = %v, want %v", cfg.TickInterval, DefaultTickInterval)
	}
	if cfg.Logger == nil {
		t.Error("Logger not defaulted")
	}

	custom := Config{TickInterval: 10 * time.Millisecond}
	custom.applyDefaults()
	if custom.TickInterval != 10*time.Millisecond {
		t.Errorf("explicit TickInterval overwritten: %v", custom.TickInterval)
	}
}
