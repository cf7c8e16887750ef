// Package cache là lớp cache đọc (read-through) trên Redis cho các danh
// sách ít thay đổi (địa điểm, chỗ đỗ). Cache là tùy chọn: client nil thì
// mọi thao tác trở thành no-op và service đọc thẳng từ database.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const KeyLocations = "cache:locations"

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

// New trả về nil khi addr rỗng; caller dùng nil-safe methods bên dưới.
func New(addr, password string, ttl time.Duration, logger *zerolog.Logger) *Cache {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func NewWithClient(client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// GetJSON đọc và unmarshal giá trị cache vào dest. Trả về false khi cache
// miss hoặc lỗi Redis; lỗi chỉ được log, không chặn đường đọc database.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("lỗi đọc cache")
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("lỗi unmarshal cache")
		return false
	}
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("lỗi marshal cache")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("lỗi ghi cache")
	}
}

// Invalidate xóa các key sau mỗi mutation trên location/slot.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("lỗi xóa cache")
	}
}
