package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"grocery/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const (
	productKeyPrefix = "catalog:product:"
	listKeyPrefix    = "catalog:list:"
	versionKey       = "catalog:version"
)

// 商品の読み取りキャッシュ。一覧はバージョン番号付きのキーにして、
// 書き込み時はバージョンを上げるだけで古い一覧を読まなくなる。
type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProductCache(client *redis.Client, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{client: client, ttl: ttl}
}

// addrに接続して疎通確認する
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func productKey(id int64) string {
	return productKeyPrefix + strconv.FormatInt(id, 10)
}

func (c *RedisProductCache) GetProduct(ctx context.Context, id int64) (model.Product, bool, error) {
	var p model.Product
	ok, err := c.get(ctx, productKey(id), &p)
	return p, ok, err
}

func (c *RedisProductCache) SetProduct(ctx context.Context, p model.Product) error {
	return c.set(ctx, productKey(p.ID), p)
}

func (c *RedisProductCache) GetList(ctx context.Context, query string) ([]model.Product, bool, error) {
	key, err := c.listKey(ctx, query)
	if err != nil {
		return nil, false, err
	}
	var products []model.Product
	ok, err := c.get(ctx, key, &products)
	return products, ok, err
}

func (c *RedisProductCache) SetList(ctx context.Context, query string, products []model.Product) error {
	key, err := c.listKey(ctx, query)
	if err != nil {
		return err
	}
	return c.set(ctx, key, products)
}

// 一覧は全て無効、商品は指定分だけ消す
func (c *RedisProductCache) Invalidate(ctx context.Context, ids ...int64) error {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, versionKey)
	if len(ids) > 0 {
		keys := make([]string, 0, len(ids))
		for _, id := range ids {
			keys = append(keys, productKey(id))
		}
		pipe.Del(ctx, keys...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisProductCache) listKey(ctx context.Context, query string) (string, error) {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("%sv%d:%s", listKeyPrefix, v, query), nil
}

func (c *RedisProductCache) get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisProductCache) set(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// REDIS_ADDRが無いとき用。常にミス。
type NopProductCache struct{}

func (NopProductCache) GetProduct(context.Context, int64) (model.Product, bool, error) {
	return model.Product{}, false, nil
}
func (NopProductCache) SetProduct(context.Context, model.Product) error { return nil }
func (NopProductCache) GetList(context.Context, string) ([]model.Product, bool, error) {
	return nil, false, nil
}
func (NopProductCache) SetList(context.Context, string, []model.Product) error { return nil }
func (NopProductCache) Invalidate(context.Context, ...int64) error            { return nil }
