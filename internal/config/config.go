// Package config loads codesync settings from a YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	cserrors "github.com/manpreetbhatti/codesync/internal/errors"
)

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = "codesync.yml"

// Store drivers for the room counter.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Jobs    JobsConfig    `yaml:"jobs"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	MaxMessageSize    int64         `yaml:"max_message_size"`
	SendBuffer        int           `yaml:"send_buffer"`
	MessagesPerSecond float64       `yaml:"messages_per_second"`
	MessageBurst      int           `yaml:"message_burst"`
	WriteWait         time.Duration `yaml:"write_wait"`
	PongWait          time.Duration `yaml:"pong_wait"`
}

type StoreConfig struct {
	Driver      string        `yaml:"driver"`
	Path        string        `yaml:"path"`
	PostgresURL string        `yaml:"postgres_url"`
	RedisAddr   string        `yaml:"redis_addr"`
	CounterID   string        `yaml:"counter_id"`
	Timeout     time.Duration `yaml:"timeout"`
}

type JobsConfig struct {
	CompilerURL  string        `yaml:"compiler_url"`
	ServerURL    string        `yaml:"server_url"`
	User         string        `yaml:"user"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the settings used when neither file nor environment say otherwise.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			MaxMessageSize:    1024 * 1024,
			SendBuffer:        256,
			MessagesPerSecond: 100,
			MessageBurst:      200,
			WriteWait:         10 * time.Second,
			PongWait:          60 * time.Second,
		},
		Store: StoreConfig{
			Driver:    DriverSQLite,
			Path:      "./data/codesync.db",
			RedisAddr: "localhost:6379",
			CounterID: "default",
			Timeout:   5 * time.Second,
		},
		Jobs: JobsConfig{
			ServerURL:    "http://localhost:8080",
			User:         "CodeSync",
			PollInterval: 2 * time.Second,
			Timeout:      30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (or DefaultConfigFile when path is empty), applies
// environment overrides and validates the result. A missing default file is
// not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, cserrors.Wrap(err, cserrors.ErrCodeConfigInvalid,
				fmt.Sprintf("failed to parse %s", path)).WithDetail("path", path)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables resolved through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if port, ok := lookup("PORT"); ok && port != "" {
		c.Server.Addr = ":" + port
	}
	if v, ok := lookup("CODESYNC_STORE"); ok && v != "" {
		c.Store.Driver = v
	}
	if v, ok := lookup("CODESYNC_DB_PATH"); ok && v != "" {
		c.Store.Path = v
	}
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		c.Store.PostgresURL = v
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		c.Store.RedisAddr = v
	}
	if v, ok := lookup("CODESYNC_COUNTER_ID"); ok && v != "" {
		c.Store.CounterID = v
	}
	if v, ok := lookup("COMPILER_URL"); ok && v != "" {
		c.Jobs.CompilerURL = v
	}
	if v, ok := lookup("CODESYNC_SERVER_URL"); ok && v != "" {
		c.Jobs.ServerURL = v
	}
	if v, ok := lookup("CODESYNC_POLL_INTERVAL_MS"); ok && v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return cserrors.ConfigInvalid(fmt.Sprintf("CODESYNC_POLL_INTERVAL_MS=%q is not a number", v))
		}
		c.Jobs.PollInterval = time.Duration(ms) * time.Millisecond
	}
	if v, ok := lookup("CODESYNC_LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks the values that would otherwise fail deep inside the server.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return cserrors.ConfigInvalid("store.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Store.PostgresURL == "" {
			return cserrors.ConfigInvalid("store.postgres_url is required for the postgres driver")
		}
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			return cserrors.ConfigInvalid("store.redis_addr is required for the redis driver")
		}
	case DriverMemory:
	default:
		return cserrors.ConfigInvalid(fmt.Sprintf("unknown store driver %q", c.Store.Driver)).
			WithDetail("driver", c.Store.Driver)
	}

	if c.Store.CounterID == "" {
		return cserrors.ConfigInvalid("store.counter_id must not be empty")
	}
	if c.Server.MaxMessageSize <= 0 || c.Server.SendBuffer <= 0 {
		return cserrors.ConfigInvalid("server.max_message_size and server.send_buffer must be positive")
	}
	if c.Server.MessagesPerSecond <= 0 || c.Server.MessageBurst <= 0 {
		return cserrors.ConfigInvalid("server rate limits must be positive")
	}
	if c.Server.WriteWait <= 0 || c.Server.PongWait <= 0 {
		return cserrors.ConfigInvalid("server.write_wait and server.pong_wait must be positive")
	}
	if c.Jobs.PollInterval <= 0 || c.Jobs.Timeout <= 0 {
		return cserrors.ConfigInvalid("jobs.poll_interval and jobs.timeout must be positive")
	}
	return nil
}
