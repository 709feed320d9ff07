package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Redis      RedisConfig      `mapstructure:"redis"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Cache      CacheConfig      `mapstructure:"cache"`
	GeoIP      GeoIPConfig      `mapstructure:"geoip"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
	// DefaultHost serves links that have no custom domain. It is also the
	// host used when invalidating cache entries for such links.
	DefaultHost string `mapstructure:"default_host"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type ClickHouseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	MonitorPort int    `mapstructure:"monitor_port"`
}

type CacheConfig struct {
	// LinkTTLSeconds is the default TTL of a cached link projection.
	// Per-entry TTL is clamped to the link expiry when one is set.
	LinkTTLSeconds int `mapstructure:"link_ttl_seconds"`
}

// LinkTTL returns the configured default link TTL, falling back to one hour.
func (c CacheConfig) LinkTTL() time.Duration {
	if c.LinkTTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.LinkTTLSeconds) * time.Second
}

type GeoIPConfig struct {
	// Driver selects the lookup backend: "ipsb" or "noop".
	Driver         string `mapstructure:"driver"`
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout returns the per-lookup timeout, falling back to three seconds.
func (c GeoIPConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type AuthConfig struct {
	// Secret signs and verifies session JWTs (HS256).
	Secret string `mapstructure:"secret"`
}

type PrometheusConfig struct {
	Port           int    `mapstructure:"port"`
	Retention      string `mapstructure:"retention"`
	ScrapeInterval string `mapstructure:"scrape_interval"`
	Target         string `mapstructure:"target"`
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.default_host", "DEFAULT_HOST")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// ClickHouse
	v.BindEnv("clickhouse.host", "CH_HOST")
	v.BindEnv("clickhouse.port", "CH_PORT")
	v.BindEnv("clickhouse.user", "CH_USER")
	v.BindEnv("clickhouse.password", "CH_PASSWORD")
	v.BindEnv("clickhouse.database", "CH_DB")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")
	v.BindEnv("nats.monitor_port", "NATS_MONITOR_PORT")

	// Cache
	v.BindEnv("cache.link_ttl_seconds", "CACHE_LINK_TTL_SECONDS")

	// GeoIP
	v.BindEnv("geoip.driver", "GEOIP_DRIVER")
	v.BindEnv("geoip.endpoint", "GEOIP_ENDPOINT")
	v.BindEnv("geoip.timeout_seconds", "GEOIP_TIMEOUT_SECONDS")

	// Auth
	v.BindEnv("auth.secret", "AUTH_SECRET")

	// Prometheus
	v.BindEnv("prometheus.port", "PROM_PORT")
	v.BindEnv("prometheus.retention", "PROM_RETENTION")
	v.BindEnv("prometheus.scrape_interval", "PROM_SCRAPE_INTERVAL")
	v.BindEnv("prometheus.target", "PROM_TARGET")
}
