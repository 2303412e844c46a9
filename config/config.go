package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// DefaultTickRate is the scheduler update interval when PULSE_TICK_RATE
// is unset.
const DefaultTickRate = 50 * time.Millisecond

// TickRate returns the configured scheduler update interval.
// PULSE_TICK_RATE accepts a Go duration string ("16ms", "1s").
func TickRate() time.Duration {
	if v := os.Getenv("PULSE_TICK_RATE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return DefaultTickRate
}

// Dir returns the pulse configuration directory.
// Respects XDG_CONFIG_HOME on Unix, APPDATA on Windows.
func Dir() string {
	var base string

	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	} else {
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, "pulse")
}

// InitFile returns the path to init.lua
func InitFile() string {
	return filepath.Join(Dir(), "init.lua")
}
