// Package config loads the service configuration from a YAML file with
// environment overrides and builds the root logger.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gartstein/vcpms/internal/portfolio/db"
	"github.com/gartstein/vcpms/internal/portfolio/listing"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// PathEnv names the variable holding the config file location.
	PathEnv     = "VCPMS_CONFIG"
	DefaultPath = "config/config.yaml"
)

// Config struct for YAML configuration. Every key can be overridden by the
// environment variable of the same name.
type Config struct {
	HTTPPort      int           `yaml:"HTTP_PORT"`
	DBDriver      string        `yaml:"DB_DRIVER"`
	DBHost        string        `yaml:"DB_HOST"`
	DBPort        int           `yaml:"DB_PORT"`
	DBUser        string        `yaml:"DB_USER"`
	DBPassword    string        `yaml:"DB_PASSWORD"`
	DBName        string        `yaml:"DB_NAME"`
	DBSSLMode     string        `yaml:"DB_SSLMODE"`
	DBPath        string        `yaml:"DB_PATH"`
	RedisAddress  string        `yaml:"REDIS_ADDRESS"`
	RedisPassword string        `yaml:"REDIS_PASSWORD"`
	KafkaBrokers  []string      `yaml:"KAFKA_BROKERS"`
	Topic         string        `yaml:"TOPIC"`
	JWTSecret     string        `yaml:"JWT_SECRET"`
	MediaRoot     string        `yaml:"MEDIA_ROOT"`
	SessionTTL    time.Duration `yaml:"SESSION_TTL"`
	AdminPageSize int           `yaml:"ADMIN_PAGE_SIZE"`
	LogFile       string        `yaml:"LOG_FILE"`
	LogLevel      string        `yaml:"LOG_LEVEL"`
}

func defaults() Config {
	return Config{
		HTTPPort:      8080,
		DBDriver:      "postgres",
		DBHost:        "localhost",
		DBPort:        5432,
		DBSSLMode:     "disable",
		DBPath:        "vcpms.db",
		Topic:         "portfolio-events",
		MediaRoot:     "media",
		SessionTTL:    14 * 24 * time.Hour,
		AdminPageSize: listing.DefaultAdminPageSize,
		LogLevel:      "info",
	}
}

// Load reads .env when present, then the YAML file at path (or $VCPMS_CONFIG,
// or DefaultPath), then applies environment overrides. A missing YAML file
// leaves the defaults in place.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := defaults()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("DB_DRIVER", &c.DBDriver)
	str("DB_HOST", &c.DBHost)
	str("DB_USER", &c.DBUser)
	str("DB_PASSWORD", &c.DBPassword)
	str("DB_NAME", &c.DBName)
	str("DB_SSLMODE", &c.DBSSLMode)
	str("DB_PATH", &c.DBPath)
	str("REDIS_ADDRESS", &c.RedisAddress)
	str("REDIS_PASSWORD", &c.RedisPassword)
	str("TOPIC", &c.Topic)
	str("JWT_SECRET", &c.JWTSecret)
	str("MEDIA_ROOT", &c.MediaRoot)
	str("LOG_FILE", &c.LogFile)
	str("LOG_LEVEL", &c.LogLevel)
	for key, dst := range map[string]*int{
		"HTTP_PORT":       &c.HTTPPort,
		"DB_PORT":         &c.DBPort,
		"ADMIN_PAGE_SIZE": &c.AdminPageSize,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok {
		c.KafkaBrokers = splitList(v)
	}
	if v, ok := lookup("SESSION_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET must be set")
	case c.HTTPPort <= 0:
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort)
	case c.SessionTTL <= 0:
		return fmt.Errorf("invalid SESSION_TTL %s", c.SessionTTL)
	case c.AdminPageSize <= 0:
		return fmt.Errorf("invalid ADMIN_PAGE_SIZE %d", c.AdminPageSize)
	}
	return nil
}

// Database returns the repository settings.
func (c *Config) Database() *db.Config {
	return &db.Config{
		Driver:   c.DBDriver,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
		SSLMode:  c.DBSSLMode,
		Path:     c.DBPath,
	}
}
