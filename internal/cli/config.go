package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// fileConfig is the optional user configuration read from
// ~/.config/analemma/config.toml. Values become flag defaults; explicit
// flags always win.
type fileConfig struct {
	Observer observerConfig `toml:"observer"`
	Camera   cameraConfig   `toml:"camera"`
}

type observerConfig struct {
	Latitude  float64  `toml:"latitude"`
	Longitude float64  `toml:"longitude"`
	Timezone  *float64 `toml:"timezone"`
}

type cameraConfig struct {
	FocalLengthMM  float64 `toml:"focal_length_mm"`
	SensorWidthMM  float64 `toml:"sensor_width_mm"`
	SensorHeightMM float64 `toml:"sensor_height_mm"`
}

// hasObserver reports whether the config supplies an observer location.
func (c fileConfig) hasObserver() bool {
	return c.Observer.Latitude != 0 || c.Observer.Longitude != 0
}

// loadConfig reads the config file. A missing file yields a zero config;
// a malformed one is an error.
func loadConfig() (fileConfig, error) {
	var cfg fileConfig
	dir, err := configDir()
	if err != nil {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(filepath.Join(dir, "config.toml"), &cfg); err != nil {
		if os.IsNotExist(err) {
			return fileConfig{}, nil
		}
		return fileConfig{}, err
	}
	return cfg, nil
}

// configDir returns the config directory using XDG standard (~/.config/analemma/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
