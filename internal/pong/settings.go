package pong

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings are the tunable game parameters, reloadable at runtime.
type Settings struct {
	// PaddleSpeed scales the input axis into world units per tick.
	PaddleSpeed float32 `yaml:"paddle_speed"`

	// Clamp keeps paddles inside the arena.
	Clamp bool `yaml:"clamp"`
}

// DefaultSettings returns the settings used without a settings file.
func DefaultSettings() Settings {
	return Settings{PaddleSpeed: 1.2}
}

// LoadSettings reads a YAML settings file over the defaults.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("pong: load %s: %w", path, err)
	}
	s, err := ParseSettings(data)
	if err != nil {
		return Settings{}, fmt.Errorf("pong: %s: %w", path, err)
	}
	return s, nil
}

// ParseSettings decodes a YAML settings document over the defaults.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal: %w", err)
	}
	if s.PaddleSpeed < 0 {
		return Settings{}, fmt.Errorf("paddle_speed must not be negative, got %v", s.PaddleSpeed)
	}
	return s, nil
}
