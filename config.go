package decs

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file form of dispatcher and runner settings.
//
//	workers: 4
//	tick_rate: 50ms
//	failure_policy: continue
//	log_level: debug
type Config struct {
	Workers       int           `yaml:"workers"`
	TickRate      time.Duration `yaml:"tick_rate"`
	FailurePolicy FailurePolicy `yaml:"failure_policy"`
	LogLevel      string        `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	opts := defaultOptions()
	return Config{
		Workers:       opts.Workers,
		TickRate:      DefaultTickRate,
		FailurePolicy: opts.FailurePolicy,
		LogLevel:      "info",
	}
}

// LoadConfig reads a YAML config file. Missing keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("decs: load config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("decs: config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a YAML config document over the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.TickRate <= 0 {
		return Config{}, fmt.Errorf("tick_rate must be positive, got %s", cfg.TickRate)
	}
	if _, err := cfg.level(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Options returns the dispatcher options described by the config.
func (c Config) Options(logger *slog.Logger) []Option {
	return []Option{
		WithWorkers(c.Workers),
		WithFailurePolicy(c.FailurePolicy),
		WithLogger(logger),
	}
}

// Logger returns a text logger writing to out at the configured level.
func (c Config) Logger(out io.Writer) *slog.Logger {
	lvl, _ := c.level()
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl}))
}

func (c Config) level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// UnmarshalYAML decodes "fail-fast" or "continue".
func (p *FailurePolicy) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("failure_policy must be a string")
	}
	switch strings.ToLower(strings.TrimSpace(value.Value)) {
	case "fail-fast", "failfast", "":
		*p = FailFast
	case "continue", "continue-on-failure":
		*p = ContinueOnFailure
	default:
		return fmt.Errorf("invalid failure_policy: %s", value.Value)
	}
	return nil
}

// MarshalYAML encodes the policy as its string form.
func (p FailurePolicy) MarshalYAML() (any, error) {
	return p.String(), nil
}
