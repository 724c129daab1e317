package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"ev-route-service/internal/services"
)

// EnvPrefix marks environment overrides, e.g. EVR_PLANNER__MAX_STOPS=8.
const EnvPrefix = "EVR_"

type Config struct {
	Server   ServerConfig        `json:"server"`
	Logging  LoggingConfig       `json:"logging"`
	Database DatabaseConfig      `json:"database"`
	Redis    RedisConfig         `json:"redis"`
	Routing  RoutingConfig       `json:"routing"`
	Stations StationsConfig      `json:"stations"`
	Planner  services.PlanPolicy `json:"planner"`
	Events   EventsConfig        `json:"events"`
	Presets  []PresetConfig      `json:"presets"`
}

// Load reads the optional config file at path, applies EVR_ environment
// overrides, fills defaults and validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if strings.TrimSpace(path) != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("load config: unsupported format %q", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load config: env: %w", err)
	}

	// Planner fields accept zero, so their defaults are seeded before decoding.
	cfg := Config{Planner: services.DefaultPlanPolicy()}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("load config: decode: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills zero-valued sections. The planner section is seeded by Load.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Logging.SetDefaults()
	c.Database.SetDefaults()
	c.Redis.SetDefaults()
	c.Routing.SetDefaults()
	c.Stations.SetDefaults()
	c.Events.SetDefaults()
	if len(c.Presets) == 0 {
		c.Presets = DefaultPresets()
	}
}

func (c Config) Validate() error {
	checks := []struct {
		section string
		err     error
	}{
		{"server", c.Server.Validate()},
		{"logging", c.Logging.Validate()},
		{"database", c.Database.Validate()},
		{"routing", c.Routing.Validate()},
		{"stations", c.Stations.Validate()},
		{"planner", c.Planner.Validate()},
		{"events", c.Events.Validate()},
	}
	for _, ch := range checks {
		if ch.err != nil {
			return fmt.Errorf("config %s: %w", ch.section, ch.err)
		}
	}

	if c.Routing.RouteCache == RouteCacheRedis && c.Redis.Addr == "" {
		return fmt.Errorf("config routing: route_cache redis requires redis.addr")
	}
	if c.Stations.Provider == StationsPostgres && c.Database.Dialect != DialectPostgres {
		return fmt.Errorf("config stations: provider postgres requires database.dialect postgres")
	}
	if c.Stations.Provider == StationsSQLite && c.Database.Dialect != DialectSQLite {
		return fmt.Errorf("config stations: provider sqlite requires database.dialect sqlite")
	}
	for i, p := range c.Presets {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("config presets[%d]: %w", i, err)
		}
	}
	return nil
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
