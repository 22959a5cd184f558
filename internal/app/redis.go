package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"fuelanchor/internal/config"
)

// NewRedisClient connects to the Redis instance used for the station cache, the
// location index, the event stream and idempotency keys. The connection check is
// bounded by the configured dial timeout so an unreachable Redis does not hold up
// startup.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, nrApp *newrelic.Application) (*redis.Client, error) {
	client := redis.NewClient(redisOptions(cfg))

	if nrApp != nil {
		client.AddHook(datastoreHook{})
	}

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}

// redisOptions maps the config onto client options. Zero values keep the
// go-redis defaults.
func redisOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// datastoreHook reports each command as a New Relic datastore segment of the
// request transaction, named after the keyspace it touches.
type datastoreHook struct{}

func (datastoreHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (datastoreHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		defer startSegment(ctx, cmd.Name(), keyspace(cmd)).End()
		return next(ctx, cmd)
	}
}

func (datastoreHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		defer startSegment(ctx, "pipeline", pipelineKeyspace(cmds)).End()
		return next(ctx, cmds)
	}
}

// startSegment opens a segment on the transaction in ctx. Without one the
// returned segment is inert.
func startSegment(ctx context.Context, operation, collection string) *newrelic.DatastoreSegment {
	return &newrelic.DatastoreSegment{
		StartTime:  newrelic.FromContext(ctx).StartSegmentNow(),
		Product:    newrelic.DatastoreRedis,
		Operation:  operation,
		Collection: collection,
	}
}

// keyspace names the segment after the key prefix, e.g. "cache" for
// "cache:station:0a1b...". Commands without a key fall back to "redis".
func keyspace(cmd redis.Cmder) string {
	args := cmd.Args()
	if len(args) < 2 {
		return "redis"
	}
	key, ok := args[1].(string)
	if !ok {
		return "redis"
	}
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// pipelineKeyspace is the common keyspace of a pipeline, or "mixed" when the
// commands span several. MULTI and EXEC wrappers are ignored.
func pipelineKeyspace(cmds []redis.Cmder) string {
	space := ""
	for _, cmd := range cmds {
		switch cmd.Name() {
		case "multi", "exec":
			continue
		}
		ks := keyspace(cmd)
		switch {
		case space == "":
			space = ks
		case space != ks:
			return "mixed"
		}
	}
	if space == "" {
		return "redis"
	}
	return space
}
