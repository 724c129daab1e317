package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"ev-route-service/internal/adapters/cache"
	"ev-route-service/internal/adapters/events"
	"ev-route-service/internal/adapters/repositories"
	"ev-route-service/internal/adapters/routing"
	"ev-route-service/internal/adapters/stations"
	"ev-route-service/internal/api"
	"ev-route-service/internal/config"
	"ev-route-service/internal/platform/db"
	"ev-route-service/internal/platform/obs"
	"ev-route-service/internal/ports"
	"ev-route-service/internal/services"
)

type planPublisher interface {
	ports.PlanPublisher
	Close() error
}

type app struct {
	db        *sql.DB
	redis     *redis.Client
	publisher planPublisher
	handler   http.Handler
}

func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close(log)
		}
	}()

	a.db, err = openDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := repositories.InitSchema(ctx, a.db, cfg.Database.Dialect); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := obs.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	routeCache, err := a.routeCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var geocodeCache ports.GeocodeCache
	if cfg.Database.Dialect == config.DialectPostgres {
		geocodeCache = cache.NewSQLGeocodeCache(a.db)
	} else {
		geocodeCache = cache.NewSqliteGeocodeCache(a.db)
	}

	provider, err := routing.NewORSRoutingProvider(routing.ORSOptions{
		APIKey:       cfg.Routing.APIKey,
		BaseURL:      cfg.Routing.BaseURL,
		Profile:      cfg.Routing.Profile,
		Country:      cfg.Routing.Country,
		Timeout:      cfg.Routing.Timeout,
		GeocodeCache: geocodeCache,
		RouteCache:   routeCache,
		Metrics:      metrics,
	})
	if err != nil {
		return nil, err
	}

	directory, err := a.stationDirectory(ctx, cfg, metrics, log)
	if err != nil {
		return nil, err
	}

	a.publisher = events.NopPublisher{}
	if cfg.Events.Enabled() {
		kp, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:      cfg.Events.Kafka.Brokers,
			Topic:        cfg.Events.Kafka.Topic,
			Acks:         cfg.Events.Kafka.Acks,
			WriteTimeout: cfg.Events.Kafka.WriteTimeout,
		})
		if err != nil {
			return nil, err
		}
		a.publisher = kp
		log.Info().Strs("brokers", cfg.Events.Kafka.Brokers).Str("topic", cfg.Events.Kafka.Topic).Msg("publishing plan events")
	}

	planner := services.NewTripPlanner(provider, directory,
		services.WithPublisher(a.publisher),
		services.WithMetrics(metrics),
	)

	a.handler = api.NewRouter(api.Deps{
		Planner:     planner,
		Policy:      cfg.Planner,
		Stations:    directory,
		Presets:     cfg.VehiclePresets(),
		Logger:      log,
		Metrics:     metrics,
		Gatherer:    reg,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	return a, nil
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Dialect == config.DialectSQLite && cfg.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("openDB: create data directory: %w", err)
		}
	}
	return db.Open(cfg.Dialect, cfg.DSN)
}

func (a *app) routeCache(ctx context.Context, cfg *config.Config) (ports.RouteCache, error) {
	switch cfg.Routing.RouteCache {
	case config.RouteCacheRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("route cache: ping redis %s: %w", cfg.Redis.Addr, err)
		}
		return cache.NewRedisRouteCache(a.redis, cfg.Redis.Prefix, cfg.Routing.RouteCacheTTL), nil
	case config.RouteCacheDatabase:
		if cfg.Database.Dialect == config.DialectPostgres {
			return cache.NewSQLRouteCache(a.db, cfg.Routing.RouteCacheTTL), nil
		}
		return cache.NewSqliteRouteCache(a.db, cfg.Routing.RouteCacheTTL), nil
	default:
		return nil, nil
	}
}

func (a *app) stationDirectory(
	ctx context.Context,
	cfg *config.Config,
	metrics *obs.Metrics,
	log zerolog.Logger,
) (ports.StationDirectory, error) {
	var repo ports.StationRepository

	switch cfg.Stations.Provider {
	case config.StationsOCM:
		return stations.NewOCMDirectory(stations.OCMOptions{
			APIKey:     cfg.Stations.OCM.APIKey,
			BaseURL:    cfg.Stations.OCM.BaseURL,
			MaxResults: cfg.Stations.OCM.MaxResults,
			Timeout:    cfg.Stations.OCM.Timeout,
			Metrics:    metrics,
		}), nil
	case config.StationsFile:
		mem, err := repositories.NewMemoryStationRepositoryFromFile(cfg.Stations.SeedPath)
		if err != nil {
			return nil, err
		}
		log.Info().Int("stations", mem.Len()).Str("path", cfg.Stations.SeedPath).Msg("loaded station file")
		return mem, nil
	case config.StationsPostgres:
		repo = repositories.NewSQLStationRepository(a.db)
	default:
		repo = repositories.NewSqliteStationRepository(a.db)
	}

	// Seed demo stations on startup for local runs.
	if cfg.Stations.AutoSeed {
		n, err := repositories.SeedStations(ctx, repo, cfg.Stations.SeedPath)
		if err != nil {
			return nil, err
		}
		log.Info().Int("stations", n).Str("path", cfg.Stations.SeedPath).Msg("seeded stations")
	}
	return repo, nil
}

func (a *app) Close(log zerolog.Logger) {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("close publisher")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Warn().Err(err).Msg("close database")
		}
	}
}
