package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wiredtiger/wttrace/internal/selection"
)

// DefaultPort is the well-known loopback port probes send telemetry to.
const DefaultPort = 8999

type Config struct {
	Listener      ListenerConfig `yaml:"listener"`
	Resolver      ResolverConfig `yaml:"resolver"`
	Probes        ProbesConfig   `yaml:"probes"`
	Log           LogConfig      `yaml:"log"`
	Relay         RelayConfig    `yaml:"relay"`
	StatsInterval time.Duration  `yaml:"stats_interval"`
}

type ListenerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	BufferSize int    `yaml:"buffer_size"`
}

type ResolverConfig struct {
	Command []string `yaml:"command"`
}

// ProbesConfig holds the argv prefix of the probe executable for each
// metric. The orchestrator appends the library, listener address and
// symbol list.
type ProbesConfig struct {
	Latency   []string `yaml:"latency"`
	Frequency []string `yaml:"frequency"`
	Stack     []string `yaml:"stack"`
}

type LogConfig struct {
	Scrollback int    `yaml:"scrollback"`
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
}

// RelayConfig enables the WebSocket mirror of the telemetry feed when Addr
// is non-empty. Token, when set, must accompany every connection.
type RelayConfig struct {
	Addr           string   `yaml:"addr"`
	Token          string   `yaml:"token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func defaultConfig() *Config {
	return &Config{
		Listener: ListenerConfig{
			Host:       "127.0.0.1",
			Port:       DefaultPort,
			BufferSize: 64 * 1024,
		},
		Resolver: ResolverConfig{
			Command: []string{"python3", "find_symbols.py"},
		},
		Probes: ProbesConfig{
			Latency:   []string{"python3", "stat_latency.py"},
			Frequency: []string{"python3", "stat_frequency.py"},
			Stack:     []string{"python3", "stat_stacktrace.py"},
		},
		Log: LogConfig{
			Scrollback: 500,
			Level:      "info",
		},
		StatsInterval: 2 * time.Second,
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to defaults when the file
// does not exist. An empty path means defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

// Validate rejects configurations the session cannot run with.
func (c *Config) Validate() error {
	if c.Listener.Port < 1 || c.Listener.Port > 65535 {
		return fmt.Errorf("listener.port %d out of range", c.Listener.Port)
	}
	if strings.TrimSpace(c.Listener.Host) == "" {
		return errors.New("listener.host is empty")
	}
	if c.Listener.BufferSize <= 0 {
		return fmt.Errorf("listener.buffer_size must be positive, got %d", c.Listener.BufferSize)
	}
	if len(c.Resolver.Command) == 0 {
		return errors.New("resolver.command is empty")
	}
	for _, m := range selection.Metrics() {
		if len(c.Probes.Command(m)) == 0 {
			return fmt.Errorf("probes.%s is empty", m)
		}
	}
	if c.Log.Scrollback <= 0 {
		return fmt.Errorf("log.scrollback must be positive, got %d", c.Log.Scrollback)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.StatsInterval <= 0 {
		return fmt.Errorf("stats_interval must be positive, got %s", c.StatsInterval)
	}
	return nil
}

// Command returns the probe argv prefix for a metric.
func (p ProbesConfig) Command(m selection.Metric) []string {
	switch m {
	case selection.Latency:
		return p.Latency
	case selection.Frequency:
		return p.Frequency
	case selection.Stack:
		return p.Stack
	}
	return nil
}

// Commands returns the argv prefixes keyed by metric.
func (p ProbesConfig) Commands() map[selection.Metric][]string {
	out := make(map[selection.Metric][]string, selection.Count())
	for _, m := range selection.Metrics() {
		out[m] = p.Command(m)
	}
	return out
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
