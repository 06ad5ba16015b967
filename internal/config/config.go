package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName      string           `yaml:"app_name"`
	Environment  string           `yaml:"environment"`
	ProductsPath string           `yaml:"products_path"`
	HTTP         HTTPConfig       `yaml:"http"`
	Proxy        ProxyConfig      `yaml:"proxy"`
	Store        StoreConfig      `yaml:"store"`
	Database     DatabaseConfig   `yaml:"database"`
	Redis        RedisConfig      `yaml:"redis"`
	Kafka        KafkaConfig      `yaml:"kafka"`
	Outbox       OutboxConfig     `yaml:"outbox"`
	Monitor      MonitorConfig    `yaml:"monitor"`
	Context      ContextConfig    `yaml:"context"`
	Logger       LoggerConfig     `yaml:"logger"`
	Migrations   MigrationsConfig `yaml:"migrations"`
}

type HTTPConfig struct {
	Host         string        `yaml:"host"`
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	MaxConn      int           `yaml:"max_conn"`
	HealthPath   string        `yaml:"health_path"`
}

// ProxyConfig controls which requests are served locally.
type ProxyConfig struct {
	BasePrefix     string        `yaml:"base_prefix"`
	UpstreamURL    string        `yaml:"upstream_url"`
	ForwardTimeout time.Duration `yaml:"forward_timeout"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path"`
	RedisPrefix string `yaml:"redis_prefix"`
	MaxRetries  int    `yaml:"max_retries"`
}

type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	SSLMode         string        `yaml:"sslmode"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// OutboxConfig controls the local retry buffer for undelivered events.
type OutboxConfig struct {
	Path         string        `yaml:"path"`
	SyncInterval time.Duration `yaml:"sync_interval"`
	BatchSize    int           `yaml:"batch_size"`
	MaxRetry     int           `yaml:"max_retry"`
}

type MonitorConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type ContextConfig struct {
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LoggerConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type MigrationsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		AppName:     "interceptor",
		Environment: "development",
		HTTP: HTTPConfig{
			Host:         "127.0.0.1",
			Port:         "8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
			HealthPath:   "/__interceptor/health",
		},
		Proxy: ProxyConfig{
			BasePrefix:     "/api",
			UpstreamURL:    "http://localhost:3000",
			ForwardTimeout: 15 * time.Second,
		},
		Store: StoreConfig{
			Driver:      "bolt",
			Path:        "./data/store.db",
			RedisPrefix: "interceptor:",
			MaxRetries:  10,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			Name:            "interceptor",
			User:            "interceptor",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			MaxConnLifetime: time.Hour,
			SSLMode:         "disable",
		},
		Redis: RedisConfig{
			URL: "redis://localhost:6379",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "interceptor-events",
		},
		Outbox: OutboxConfig{
			Path:         "./data/outbox.db",
			SyncInterval: 30 * time.Second,
			BatchSize:    50,
			MaxRetry:     5,
		},
		Monitor: MonitorConfig{
			Interval: 10 * time.Second,
		},
		Context: ContextConfig{
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logger: LoggerConfig{
			Level:    "info",
			Encoding: "json",
		},
		Migrations: MigrationsConfig{
			Enabled: true,
		},
	}
}

// Load applies, in order: defaults, the YAML file named by CONFIG_FILE
// (config.yaml when unset, skipped if missing), .env, and environment variables.
func Load() (*Config, error) {
	return LoadFile(getString("CONFIG_FILE", "config.yaml"))
}

// LoadFile is Load with an explicit YAML path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	_ = godotenv.Load(".env")
	cfg.applyEnv()

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg.Database)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) applyEnv() {
	c.AppName = getString("APP_NAME", c.AppName)
	c.Environment = getString("APP_ENV", c.Environment)
	c.ProductsPath = getString("PRODUCTS_PATH", c.ProductsPath)

	c.HTTP.Host = getString("SERVER_HOST", c.HTTP.Host)
	c.HTTP.Port = getString("SERVER_PORT", c.HTTP.Port)
	c.HTTP.ReadTimeout = getDuration("SERVER_READ_TIMEOUT", c.HTTP.ReadTimeout)
	c.HTTP.WriteTimeout = getDuration("SERVER_WRITE_TIMEOUT", c.HTTP.WriteTimeout)
	c.HTTP.IdleTimeout = getDuration("SERVER_IDLE_TIMEOUT", c.HTTP.IdleTimeout)
	c.HTTP.MaxConn = getInt("SERVER_MAX_CONN", c.HTTP.MaxConn)
	c.HTTP.HealthPath = getString("HEALTH_PATH", c.HTTP.HealthPath)

	c.Proxy.BasePrefix = getString("BASE_PREFIX", c.Proxy.BasePrefix)
	c.Proxy.UpstreamURL = getString("UPSTREAM_URL", c.Proxy.UpstreamURL)
	c.Proxy.ForwardTimeout = getDuration("FORWARD_TIMEOUT", c.Proxy.ForwardTimeout)

	c.Store.Driver = getString("STORE_DRIVER", c.Store.Driver)
	c.Store.Path = getString("BOLTDB_PATH", c.Store.Path)
	c.Store.RedisPrefix = getString("STORE_REDIS_PREFIX", c.Store.RedisPrefix)
	c.Store.MaxRetries = getInt("STORE_MAX_RETRIES", c.Store.MaxRetries)

	c.Database.URL = getString("DATABASE_URL", c.Database.URL)
	c.Database.Host = getString("DB_HOST", c.Database.Host)
	c.Database.Port = getString("DB_PORT", c.Database.Port)
	c.Database.Name = getString("DB_NAME", c.Database.Name)
	c.Database.User = getString("DB_USER", c.Database.User)
	c.Database.Password = getString("DB_PASSWORD", c.Database.Password)
	c.Database.MaxOpenConns = getInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.MaxConnLifetime = getDuration("DB_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.SSLMode = getString("DB_SSLMODE", c.Database.SSLMode)

	c.Redis.URL = getString("REDIS_URL", c.Redis.URL)
	c.Redis.Password = getString("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getInt("REDIS_DB", c.Redis.DB)

	c.Kafka.Enabled = getBool("KAFKA_ENABLED", c.Kafka.Enabled)
	c.Kafka.Brokers = getList("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.Topic = getString("KAFKA_TOPIC", c.Kafka.Topic)

	c.Outbox.Path = getString("OUTBOX_PATH", c.Outbox.Path)
	c.Outbox.SyncInterval = getDuration("SYNC_INTERVAL_SECONDS", c.Outbox.SyncInterval)
	c.Outbox.BatchSize = getInt("OUTBOX_BATCH_SIZE", c.Outbox.BatchSize)
	c.Outbox.MaxRetry = getInt("MAX_RETRY_ATTEMPTS", c.Outbox.MaxRetry)

	c.Monitor.Interval = getDuration("MONITOR_INTERVAL", c.Monitor.Interval)

	c.Context.RequestTimeout = getDuration("REQUEST_TIMEOUT_SECONDS", c.Context.RequestTimeout)
	c.Context.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT_SECONDS", c.Context.ShutdownTimeout)

	c.Logger.Level = getString("LOG_LEVEL", c.Logger.Level)
	c.Logger.Encoding = getString("LOG_ENCODING", c.Logger.Encoding)

	c.Migrations.Enabled = getBool("RUN_MIGRATIONS", c.Migrations.Enabled)
	c.Migrations.Path = getString("MIGRATIONS_PATH", c.Migrations.Path)
}

// Validate rejects settings the proxy cannot start with.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Proxy.BasePrefix, "/") {
		return fmt.Errorf("base prefix %q must start with /", c.Proxy.BasePrefix)
	}
	switch c.Store.Driver {
	case "bolt", "memory", "redis", "postgres":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

func buildPostgresURL(db DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
