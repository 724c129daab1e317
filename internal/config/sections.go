package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"

	RouteCacheDatabase = "database"
	RouteCacheRedis    = "redis"
	RouteCacheNone     = "none"

	StationsSQLite   = "sqlite"
	StationsPostgres = "postgres"
	StationsFile     = "file"
	StationsOCM      = "ocm"
)

type ServerConfig struct {
	Addr              string        `json:"addr"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout"`
	ReadTimeout       time.Duration `json:"read_timeout"`
	// WriteTimeout covers cold-cache planning, which waits on external APIs.
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	CORSOrigins     []string      `json:"cors_origins"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":" + Get("PORT", "8080")
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 120 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 15 * time.Second
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"http://localhost:5173"}
	}
}

func (c ServerConfig) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("addr is required")
	}
	return nil
}

type LoggingConfig struct {
	// Level is a zerolog level name.
	Level string `json:"level"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = Get("LOG_LEVEL", "info")
	}
}

func (c LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
		return nil
	}
	return fmt.Errorf("unknown level %q", c.Level)
}

type DatabaseConfig struct {
	Dialect string `json:"dialect"`
	// DSN is a file path for sqlite and a connection URL for postgres.
	DSN string `json:"dsn"`
}

func (c *DatabaseConfig) SetDefaults() {
	if c.Dialect == "" {
		if Get("DATABASE_URL", "") != "" {
			c.Dialect = DialectPostgres
		} else {
			c.Dialect = DialectSQLite
		}
	}
	if c.DSN == "" {
		switch c.Dialect {
		case DialectPostgres:
			c.DSN = Get("DATABASE_URL", "")
		default:
			c.DSN = Get("DB_PATH", "data/app.db")
		}
	}
}

func (c DatabaseConfig) Validate() error {
	if c.Dialect != DialectSQLite && c.Dialect != DialectPostgres {
		return fmt.Errorf("unknown dialect %q", c.Dialect)
	}
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("dsn is required")
	}
	return nil
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

func (c *RedisConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = Get("REDIS_ADDR", "")
	}
	if c.Prefix == "" {
		c.Prefix = "evroute:route:"
	}
}

type RoutingConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Profile string `json:"profile"`
	// Country restricts geocoding to an ISO 3166 alpha-2/3 code.
	Country       string        `json:"country"`
	Timeout       time.Duration `json:"timeout"`
	RouteCache    string        `json:"route_cache"`
	RouteCacheTTL time.Duration `json:"route_cache_ttl"`
}

func (c *RoutingConfig) SetDefaults() {
	if c.APIKey == "" {
		c.APIKey = Get("ORS_API_KEY", "")
	}
	if c.Profile == "" {
		c.Profile = "driving-car"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RouteCache == "" {
		c.RouteCache = RouteCacheDatabase
	}
	if c.RouteCacheTTL == 0 {
		c.RouteCacheTTL = 24 * time.Hour
	}
}

func (c RoutingConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("api_key is required (or set ORS_API_KEY)")
	}
	switch c.RouteCache {
	case RouteCacheDatabase, RouteCacheRedis, RouteCacheNone:
	default:
		return fmt.Errorf("unknown route_cache %q", c.RouteCache)
	}
	if c.RouteCacheTTL < 0 {
		return fmt.Errorf("route_cache_ttl must not be negative")
	}
	return nil
}

type StationsConfig struct {
	Provider string `json:"provider"`
	SeedPath string `json:"seed_path"`
	// AutoSeed loads SeedPath into the database on server start.
	AutoSeed bool      `json:"auto_seed"`
	OCM      OCMConfig `json:"ocm"`
}

type OCMConfig struct {
	APIKey     string        `json:"api_key"`
	BaseURL    string        `json:"base_url"`
	MaxResults int           `json:"max_results"`
	Timeout    time.Duration `json:"timeout"`
}

func (c *StationsConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = StationsSQLite
	}
	if c.SeedPath == "" {
		c.SeedPath = Get("SEED_PATH", "data/seeds/stations.json")
	}
	if c.OCM.APIKey == "" {
		c.OCM.APIKey = Get("OCM_API_KEY", "")
	}
	if c.OCM.MaxResults == 0 {
		c.OCM.MaxResults = 100
	}
	if c.OCM.Timeout == 0 {
		c.OCM.Timeout = 15 * time.Second
	}
}

func (c StationsConfig) Validate() error {
	switch c.Provider {
	case StationsSQLite, StationsPostgres, StationsOCM:
	case StationsFile:
		if strings.TrimSpace(c.SeedPath) == "" {
			return fmt.Errorf("provider file requires seed_path")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.OCM.MaxResults < 1 {
		return fmt.Errorf("ocm.max_results must be at least 1")
	}
	return nil
}

type EventsConfig struct {
	Kafka KafkaConfig `json:"kafka"`
}

type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
	// Acks is kafka RequiredAcks: 1 waits for the leader, -1 for all replicas.
	Acks         int           `json:"acks"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

func (c *EventsConfig) SetDefaults() {
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "ev-route.plan-computed"
	}
	if c.Kafka.Acks == 0 {
		c.Kafka.Acks = 1
	}
	if c.Kafka.WriteTimeout == 0 {
		c.Kafka.WriteTimeout = 5 * time.Second
	}
}

func (c EventsConfig) Validate() error {
	if c.Kafka.Acks != 1 && c.Kafka.Acks != -1 {
		return fmt.Errorf("kafka.acks must be 1 or -1")
	}
	if c.Enabled() && strings.TrimSpace(c.Kafka.Topic) == "" {
		return fmt.Errorf("kafka.topic is required")
	}
	return nil
}

// Enabled reports whether plan events should be published.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

func (c EventsConfig) Enabled() bool { return c.Kafka.Enabled() }
