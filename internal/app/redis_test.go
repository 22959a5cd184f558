package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"fuelanchor/internal/config"
)

func TestKeyspace(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name string
		cmd  redis.Cmder
		want string
	}{
		{"station cache", redis.NewStringCmd(ctx, "get", "cache:station:0a"), "cache"},
		{"event stream", redis.NewStringCmd(ctx, "xadd", "events:stream"), "events"},
		{"no prefix", redis.NewStringCmd(ctx, "get", "plain"), "plain"},
		{"no key", redis.NewStatusCmd(ctx, "ping"), "redis"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := keyspace(tc.cmd); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestPipelineKeyspace(t *testing.T) {
	ctx := context.Background()

	cacheGet := redis.NewStringCmd(ctx, "get", "cache:station:0a")
	cacheSet := redis.NewStatusCmd(ctx, "set", "cache:station:0b", "{}")
	streamAdd := redis.NewStringCmd(ctx, "xadd", "events:stream")

	testCases := []struct {
		name string
		cmds []redis.Cmder
		want string
	}{
		{"empty", nil, "redis"},
		{"single keyspace", []redis.Cmder{cacheGet, cacheSet}, "cache"},
		{"transaction wrapper ignored", []redis.Cmder{
			redis.NewStatusCmd(ctx, "multi"), cacheGet, cacheSet, redis.NewSliceCmd(ctx, "exec"),
		}, "cache"},
		{"mixed", []redis.Cmder{cacheGet, streamAdd}, "mixed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pipelineKeyspace(tc.cmds); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestRedisOptions(t *testing.T) {
	opts := redisOptions(config.RedisConfig{
		Addr:         "redis:6379",
		DB:           2,
		PoolSize:     7,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: 2 * time.Second,
	})

	if opts.Addr != "redis:6379" || opts.DB != 2 || opts.PoolSize != 7 {
		t.Errorf("unexpected connection options %+v", opts)
	}
	if opts.DialTimeout != 3*time.Second || opts.ReadTimeout != time.Second || opts.WriteTimeout != 2*time.Second {
		t.Errorf("unexpected timeouts %+v", opts)
	}
}

func TestNewRedisClient(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(ctx, config.RedisConfig{Addr: mr.Addr(), DialTimeout: time.Second}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if err := client.Set(ctx, "cache:station:0a", "{}", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("cache:station:0a") {
		t.Error("expected key to reach the server")
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond}, nil)
	if err == nil {
		client.Close()
		t.Fatal("expected an error for an unreachable server")
	}
}

func TestDatastoreHook_PassesCommandsThroughWithoutTransaction(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	client.AddHook(datastoreHook{})

	if err := client.Set(ctx, "cache:station:0a", "{}", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, "cache:station:0a")
		pipe.Set(ctx, "cache:station:0b", "{}", 0)
		return nil
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if mr.Exists("cache:station:0a") || !mr.Exists("cache:station:0b") {
		t.Error("expected pipeline commands to reach the server")
	}
}
