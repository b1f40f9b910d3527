package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Session   SessionConfig   `yaml:"session"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DBConfig locates the metadata database.
type DBConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig selects the physical store holding row data.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "drawbridge.db",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "drawbridge_data.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: TransportStdio,
		},
		Session: SessionConfig{
			TTL: 5 * time.Minute,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("DRAWBRIDGE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("DRAWBRIDGE_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("DRAWBRIDGE_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DRAWBRIDGE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("DRAWBRIDGE_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if driver := os.Getenv("DRAWBRIDGE_STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if dsn := os.Getenv("DRAWBRIDGE_STORAGE_DSN"); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if level := os.Getenv("DRAWBRIDGE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if file := os.Getenv("DRAWBRIDGE_LOG_FILE"); file != "" {
		cfg.Log.File = file
	}
	if mode := os.Getenv("DRAWBRIDGE_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if enabled := os.Getenv("DRAWBRIDGE_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DRAWBRIDGE_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if ttl := os.Getenv("DRAWBRIDGE_SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DRAWBRIDGE_SESSION_TTL: %w", err)
		}
		cfg.Session.TTL = d
	}

	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that can't be fixed up with a default.
func (c Config) Validate() error {
	switch strings.ToLower(c.Transport.Mode) {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch strings.ToLower(c.Storage.Driver) {
	case "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("invalid storage driver %q", c.Storage.Driver)
	}
	if c.sharesMetadataFile() {
		return fmt.Errorf("storage dsn %q must not be the metadata database", c.Storage.DSN)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.Session.TTL)
	}
	return nil
}

// sharesMetadataFile reports whether a sqlite storage DSN points at the
// metadata database file. Separate ":memory:" databases never collide.
func (c Config) sharesMetadataFile() bool {
	if !strings.EqualFold(c.Storage.Driver, "sqlite") {
		return false
	}
	meta, data := sqliteFile(c.DB.Path), sqliteFile(c.Storage.DSN)
	return meta != "" && meta != ":memory:" && meta == data
}

func sqliteFile(dsn string) string {
	dsn = strings.TrimPrefix(strings.TrimSpace(dsn), "file:")
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		dsn = dsn[:i]
	}
	if dsn == "" || dsn == ":memory:" {
		return dsn
	}
	if abs, err := filepath.Abs(dsn); err == nil {
		return abs
	}
	return filepath.Clean(dsn)
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
