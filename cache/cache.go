package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a TTL key-value store over Redis. Values are JSON snapshots:
// entries are written wholesale and expire, never edited in place.
type Cache struct {
	client *redis.Client
}

func New(addr, password string) *Cache {
	return &Cache{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})}
}

// NewFromClient wraps an existing client, mainly for tests against miniredis
// style doubles.
func NewFromClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get unmarshals the cached value for key into dest. The boolean reports
// whether the key was present and still fresh.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(data), dest)
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// QueryKey builds a canonical cache key from a parameter map: parameters are
// concatenated in sorted key order and hashed, so semantically identical
// queries collide regardless of how the caller assembled them.
func QueryKey(prefix string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for i, k := range keys {
		if i > 0 {
			builder.WriteString(":")
		}
		builder.WriteString(k)
		builder.WriteString("=")
		builder.WriteString(params[k])
	}

	hash := md5.Sum([]byte(builder.String()))
	return prefix + ":" + hex.EncodeToString(hash[:])
}
