// Package rediscache stores wallet transaction counts in Redis string keys
// with a TTL, implementing ledger.Cache.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"CyberGuard/internal/ledger"

	"github.com/redis/go-redis/v9"
)

// Config 描述 Redis 缓存的连接参数。
type Config struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

// Cache 使用 Redis 字符串键缓存钱包交易数量。
type Cache struct {
	client *redis.Client
	prefix string
}

// New 创建 Redis 缓存并校验连接。
func New(ctx context.Context, cfg Config) (*Cache, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, errors.New("Redis address 不能为空")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	return newWithClient(client, cfg.Prefix), nil
}

func newWithClient(client *redis.Client, prefix string) *Cache {
	if prefix == "" {
		prefix = "cyberguard:txcount:"
	}
	return &Cache{client: client, prefix: prefix}
}

// Get 读取缓存，未命中时返回 false。
func (c *Cache) Get(ctx context.Context, address string) (int, bool, error) {
	count, err := c.client.Get(ctx, c.key(address)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("读取 Redis 缓存失败: %w", err)
	}
	return count, true, nil
}

// Set 写入缓存并设置过期时间。
func (c *Cache) Set(ctx context.Context, address string, count int, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(address), count, ttl).Err(); err != nil {
		return fmt.Errorf("写入 Redis 缓存失败: %w", err)
	}
	return nil
}

// Close 关闭 Redis 连接。
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Cache) key(address string) string {
	return c.prefix + address
}

var _ ledger.Cache = (*Cache)(nil)
