package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/qrdine/pkg/config"
	"github.com/go-redis/redis/v8"
)

// Cache keys for catalog reads.
const (
	CategoriesCacheKey = "catalog:categories"
	MenuCacheKey       = "catalog:menu"
)

const claimPending = "pending"

// ErrInFlight means another request holding the same idempotency key has
// not finished yet.
var ErrInFlight = errors.New("request with this idempotency key is in flight")

// ErrEmptyOrderID is returned by Complete when there is no order to record.
var ErrEmptyOrderID = errors.New("idempotency key completed without an order id")

type RedisCache struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisCache(cfg *config.RedisConfig) *RedisCache {
	return NewRedisCacheWithClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}), cfg)
}

func NewRedisCacheWithClient(client *redis.Client, cfg *config.RedisConfig) *RedisCache {
	return &RedisCache{client: client, config: cfg}
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if expiration == 0 {
		expiration = r.config.CacheTTL
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

// GetJSON decodes key into dest. A miss is reported as ErrNotFound.
func (r *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("idem:order:%s", key)
}

// Claim reserves key for one order submission. When the key was already used
// for a finished submission the stored order id is returned with
// claimed=false. A key still being processed yields ErrInFlight.
func (r *RedisCache) Claim(ctx context.Context, key string) (orderID string, claimed bool, err error) {
	k := idempotencyKey(key)
	ok, err := r.client.SetNX(ctx, k, claimPending, r.config.IdempotencyTTL).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	val, err := r.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		ok, err = r.client.SetNX(ctx, k, claimPending, r.config.IdempotencyTTL).Result()
		if err != nil {
			return "", false, err
		}
		if ok {
			return "", true, nil
		}
		return "", false, ErrInFlight
	}
	if err != nil {
		return "", false, err
	}
	if val == claimPending {
		return "", false, ErrInFlight
	}
	return val, false, nil
}

// Complete records the order created under a claimed key.
func (r *RedisCache) Complete(ctx context.Context, key, orderID string) error {
	if orderID == "" {
		return ErrEmptyOrderID
	}
	return r.client.Set(ctx, idempotencyKey(key), orderID, r.config.IdempotencyTTL).Err()
}

// Release drops a claim after a failed submission so the client can retry.
func (r *RedisCache) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKey(key)).Err()
}
