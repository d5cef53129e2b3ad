package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Timers        TimersConfig        `yaml:"timers"`
	Store         StoreConfig         `yaml:"store"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Updater       UpdaterConfig       `yaml:"updater"`
	Loki          LokiConfig          `yaml:"loki"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	LogLevel       string   `yaml:"log_level"`
	TrustedOrigins []string `yaml:"trusted_origins,omitempty"`
}

type TimersConfig struct {
	TickInterval  time.Duration `yaml:"tick_interval"`
	PausedBackoff time.Duration `yaml:"paused_backoff"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type NotificationsConfig struct {
	// Command is run as `command title body`, empty disables desktop delivery.
	Command string `yaml:"command"`
}

type UpdaterConfig struct {
	ManifestURL string `yaml:"manifest_url"`
}

type LokiConfig struct {
	URL         string `yaml:"url"`
	ServiceName string `yaml:"service_name"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8080,
			LogLevel: "error",
		},
		Timers: TimersConfig{
			TickInterval:  time.Second,
			PausedBackoff: 100 * time.Millisecond,
		},
		Store: StoreConfig{
			Path: "store.db",
		},
		Loki: LokiConfig{
			ServiceName: "countdown",
		},
	}
}

// Load reads path over the defaults, so a file only needs the keys it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
