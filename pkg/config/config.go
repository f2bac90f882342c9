package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Session store kinds.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config is the configuration of a relay service.
type Config struct {
	Server          Server        `yaml:"server"`
	Queue           Queue         `yaml:"queue"`
	Database        Database      `yaml:"database"`
	Jobs            Jobs          `yaml:"jobs"`
	Session         Session       `yaml:"session"`
	Sentry          Sentry        `yaml:"sentry"`
	Log             Log           `yaml:"log"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Server is the identity given to synthetic requests.
type Server struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

// Queue configures the Redis list source. An empty RedisURL disables it.
type Queue struct {
	RedisURL    string `yaml:"redis_url"`
	Key         string `yaml:"key"`
	Route       string `yaml:"route"`
	DeadLetter  string `yaml:"dead_letter"`
	Concurrency int    `yaml:"concurrency"`
}

// Database configures Postgres. An empty URL disables the job source and
// the Postgres journal.
type Database struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

// Jobs configures the River source.
type Jobs struct {
	Schedules  []Schedule `yaml:"schedules"`
	MaxWorkers int        `yaml:"max_workers"`
	Enabled    bool       `yaml:"enabled"`
}

// Schedule is one periodic dispatch.
type Schedule struct {
	Name string `yaml:"name"`
	Cron string `yaml:"cron"`
	Path string `yaml:"path"`
}

// Session configures the session store.
type Session struct {
	Store string        `yaml:"store"`
	TTL   time.Duration `yaml:"ttl"`
}

// Sentry enables error reporting when DSN is set.
type Sentry struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
	Release     string `yaml:"release"`
}

// Log configures stdout logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used for every key a file leaves out.
func Default() Config {
	return Config{
		Server: Server{Name: "localhost", Port: 80},
		Queue: Queue{
			Key:         "relay:inbox",
			Route:       "/ems/test",
			Concurrency: 1,
		},
		Database: Database{MaxConns: 10},
		Jobs:     Jobs{MaxWorkers: 100},
		Session:  Session{Store: SessionStoreMemory, TTL: 24 * time.Hour},
		Log:      Log{Level: "info", Format: "json"},

		ShutdownTimeout: 30 * time.Second,
	}
}

// Load reads and parses the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} and ${VAR:-default} references, decodes data over
// Default and validates the result. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(strings.NewReader(expandEnv(string(data))))
	dec.KnownFields(true)
	// An empty document decodes to io.EOF and keeps the defaults.
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Join(ErrInvalid, fmt.Errorf("config: decode: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// expandEnv replaces ${VAR} with the environment value and
// ${VAR:-default} with the value or default when VAR is unset or empty.
func expandEnv(s string) string {
	return os.Expand(s, func(key string) string {
		name, def, hasDef := strings.Cut(key, ":-")
		if v := os.Getenv(name); v != "" || !hasDef {
			return v
		}
		return def
	})
}
