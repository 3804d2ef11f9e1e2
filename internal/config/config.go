package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Repository RepositoryConfig `yaml:"repository"`
	Sync       SyncConfig       `yaml:"sync"`
}

type ServerConfig struct {
	Port          string        `yaml:"port"`
	Host          string        `yaml:"host"`
	RatePerMinute int           `yaml:"rate_per_minute"`
	ShutdownWait  time.Duration `yaml:"shutdown_wait"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConnections int           `yaml:"max_connections"`
	MinConnections int           `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MigrationsDir  string        `yaml:"migrations_dir"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

type RepositoryConfig struct {
	Type string `yaml:"type"` // "postgres" или "inmemory"
}

type SyncConfig struct {
	QueueSize int `yaml:"queue_size"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("не могу открыть %s: %w", path, err)
	}
	defer file.Close()

	var cfg Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.RatePerMinute <= 0 {
		c.Server.RatePerMinute = 100
	}
	if c.Server.ShutdownWait <= 0 {
		c.Server.ShutdownWait = 10 * time.Second
	}
	if c.Repository.Type == "" {
		c.Repository.Type = "inmemory"
	}
	if c.Sync.QueueSize <= 0 {
		c.Sync.QueueSize = 16
	}
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
