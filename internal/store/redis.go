package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/grvbrk/vidcatalog/internal/config"
)

const (
	exportCacheKey = "vidcatalog:api:videos"
	exportGenKey   = "vidcatalog:api:videos:gen"
)

func ConnectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		Protocol:     2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// ExportCache holds the serialized public listing between mutations.
//
// Every Invalidate bumps a generation. Get reports the generation it saw and
// Set only stores data for the generation that is still current, so a fill
// that read the store before a mutation can never overwrite the
// invalidation that followed it.
type ExportCache interface {
	Get(ctx context.Context) (data []byte, gen int64, ok bool)
	Set(ctx context.Context, gen int64, data []byte)
	Invalidate(ctx context.Context)
}

// NopExportCache is used when no Redis address is configured.
type NopExportCache struct{}

func (NopExportCache) Get(context.Context) ([]byte, int64, bool) { return nil, -1, false }
func (NopExportCache) Set(context.Context, int64, []byte)        {}
func (NopExportCache) Invalidate(context.Context)                {}

var errStaleFill = errors.New("cache generation moved")

// RedisExportCache never surfaces errors: a broken cache degrades to a miss.
type RedisExportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRedisExportCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisExportCache {
	return &RedisExportCache{client: client, ttl: ttl, logger: logger}
}

// Get returns a generation of -1 when Redis could not be read, which makes
// the following Set a no-op.
func (c *RedisExportCache) Get(ctx context.Context) ([]byte, int64, bool) {
	vals, err := c.client.MGet(ctx, exportCacheKey, exportGenKey).Result()
	if err != nil {
		c.logger.Warn().Err(err).Str("key", exportCacheKey).Msg("redis get failed")
		return nil, -1, false
	}

	var gen int64
	if s, ok := vals[1].(string); ok {
		gen, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			c.logger.Warn().Err(err).Str("key", exportGenKey).Msg("bad cache generation")
			return nil, -1, false
		}
	}

	data, ok := vals[0].(string)
	if !ok {
		return nil, gen, false
	}
	return []byte(data), gen, true
}

func (c *RedisExportCache) Set(ctx context.Context, gen int64, data []byte) {
	if gen < 0 {
		return
	}

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, exportGenKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, exportCacheKey, data, c.ttl)
			return nil
		})
		return err
	}, exportGenKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug().Int64("gen", gen).Msg("skipped stale cache fill")
	default:
		c.logger.Warn().Err(err).Str("key", exportCacheKey).Msg("redis set failed")
	}
}

func (c *RedisExportCache) Invalidate(ctx context.Context) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, exportGenKey)
		pipe.Del(ctx, exportCacheKey)
		return nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", exportCacheKey).Msg("redis delete failed")
	}
}
