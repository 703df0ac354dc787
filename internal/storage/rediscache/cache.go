package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inkwell/coauthor/internal/domain/model"
)

const (
	publishedKey  = "catalog:published"
	bookKeyPrefix = "catalog:book:"
)

// CatalogCache is a best-effort read-through cache for published listings.
// A miss (or any backend error) simply falls through to storage.
type CatalogCache interface {
	GetPublished(ctx context.Context) ([]model.Book, bool)
	SetPublished(ctx context.Context, books []model.Book)
	GetBook(ctx context.Context, slug string) (*model.Book, bool)
	SetBook(ctx context.Context, book *model.Book)
	Invalidate(ctx context.Context, slugs ...string)
}

// RedisCache implements CatalogCache on top of Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache connects to Redis and verifies connectivity.
func NewRedisCache(addr string, ttl time.Duration, logger *slog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl, logger: logger}, nil
}

// Close releases the underlying connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetPublished(ctx context.Context) ([]model.Book, bool) {
	raw, err := c.client.Get(ctx, publishedKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("catalog cache read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}
	var books []model.Book
	if err := json.Unmarshal(raw, &books); err != nil {
		return nil, false
	}
	return books, true
}

func (c *RedisCache) SetPublished(ctx context.Context, books []model.Book) {
	raw, err := json.Marshal(books)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, publishedKey, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("catalog cache write failed", slog.String("error", err.Error()))
	}
}

func (c *RedisCache) GetBook(ctx context.Context, slug string) (*model.Book, bool) {
	raw, err := c.client.Get(ctx, bookKeyPrefix+slug).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("catalog cache read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}
	var book model.Book
	if err := json.Unmarshal(raw, &book); err != nil {
		return nil, false
	}
	return &book, true
}

func (c *RedisCache) SetBook(ctx context.Context, book *model.Book) {
	raw, err := json.Marshal(book)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, bookKeyPrefix+book.Slug, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("catalog cache write failed", slog.String("error", err.Error()))
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, slugs ...string) {
	keys := make([]string, 0, len(slugs)+1)
	keys = append(keys, publishedKey)
	for _, slug := range slugs {
		keys = append(keys, bookKeyPrefix+slug)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Debug("catalog cache invalidate failed", slog.String("error", err.Error()))
	}
}

// NoopCache disables caching when no Redis address is configured.
type NoopCache struct{}

func (NoopCache) GetPublished(context.Context) ([]model.Book, bool) { return nil, false }
func (NoopCache) SetPublished(context.Context, []model.Book)        {}
func (NoopCache) GetBook(context.Context, string) (*model.Book, bool) {
	return nil, false
}
func (NoopCache) SetBook(context.Context, *model.Book)  {}
func (NoopCache) Invalidate(context.Context, ...string) {}

var _ CatalogCache = (*RedisCache)(nil)
var _ CatalogCache = NoopCache{}
