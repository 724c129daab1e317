package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/obs"
)

// RedisRouteCache stores route geometries as JSON values with a TTL.
// It is the shared cache for multi-instance deployments.
type RedisRouteCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisRouteCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisRouteCache {
	if prefix == "" {
		prefix = "evroute:route:"
	}
	return &RedisRouteCache{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisRouteCache) key(origin, destination string) (string, error) {
	k, err := routeKey(origin, destination)
	if err != nil {
		return "", err
	}
	return r.prefix + k, nil
}

func (r *RedisRouteCache) GetRoute(
	ctx context.Context,
	origin string,
	destination string,
) (_ domain.RouteGeometry, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.redis.GetRoute")(&err)

	key, err := r.key(origin, destination)
	if err != nil {
		return domain.RouteGeometry{}, false, err
	}

	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.RouteGeometry{}, false, nil
	}
	if err != nil {
		return domain.RouteGeometry{}, false, fmt.Errorf("get route cache: redis get: %w", err)
	}

	g, err := decodeRoute(b)
	if err != nil {
		return domain.RouteGeometry{}, false, fmt.Errorf("get route cache: decode: %w", err)
	}
	return g, true, nil
}

func (r *RedisRouteCache) PutRoute(
	ctx context.Context,
	origin string,
	destination string,
	g domain.RouteGeometry,
) error {
	key, err := r.key(origin, destination)
	if err != nil {
		return fmt.Errorf("insert route cache: %w", err)
	}

	b, err := encodeRoute(g)
	if err != nil {
		return fmt.Errorf("insert route cache: encode: %w", err)
	}

	if err := r.client.Set(ctx, key, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("insert route cache: redis set: %w", err)
	}
	return nil
}
